// Package render draws the education choropleth as HTML with inline SVG.
//
// Rendering is a pure function of the joined features, the color scale and
// the output writer. Nothing is kept between calls.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/couchcryptid/education-choropleth/internal/domain"
)

const (
	Title       = "United States Educational Attainment"
	Description = "Percentage of adults age 25 and older with a bachelor's degree or higher (2010-2014)"

	legendWidth  = 300
	legendHeight = 10

	mapWidth  = 800
	mapHeight = 400
	mapMargin = 20
)

// Input is everything one render pass needs.
type Input struct {
	Features []domain.CountyFeature
	Scale    *domain.Scale
	// RenderedAt is stamped into the page head; zero omits it.
	RenderedAt time.Time
}

// Renderer writes the choropleth to an explicit output surface.
type Renderer struct {
	page *template.Template
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{page: template.Must(template.New("page").Parse(pageTemplate))}
}

// Fragment writes the map container: title, description, legend, tooltip and map.
func (r *Renderer) Fragment(w io.Writer, in Input) error {
	if in.Scale == nil {
		return fmt.Errorf("render: nil scale")
	}
	ew := &errWriter{w: w}

	fmt.Fprintf(ew, `<div id="choropleth-map-container">`+"\n")
	fmt.Fprintf(ew, `<h2 id="title">%s</h2>`+"\n", template.HTMLEscapeString(Title))
	fmt.Fprintf(ew, `<p id="description">%s</p>`+"\n", template.HTMLEscapeString(Description))

	canvas := svg.New(ew)
	writeLegend(canvas, in.Scale)
	fmt.Fprintf(ew, `<pre id="tooltip" class="tooltip--hidden"></pre>`+"\n")
	writeMap(canvas, in.Features, in.Scale)
	fmt.Fprintf(ew, "</div>\n")

	if ew.err != nil {
		return fmt.Errorf("render: write fragment: %w", ew.err)
	}
	return nil
}

// openSVG writes an inline <svg> start tag. svgo's Start also emits an XML
// declaration, which is only valid at the top of a standalone document.
func openSVG(c *svg.SVG, width, height int, attrs ...string) {
	fmt.Fprintf(c.Writer, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg"`, width, height)
	for _, a := range attrs {
		fmt.Fprintf(c.Writer, " %s", a)
	}
	fmt.Fprint(c.Writer, ">\n")
}

// Page writes a complete HTML document around the fragment, including the
// stylesheet and the hover handlers.
func (r *Renderer) Page(w io.Writer, in Input) error {
	var body bytes.Buffer
	if err := r.Fragment(&body, in); err != nil {
		return err
	}

	data := struct {
		Title      string
		Palette    string
		RenderedAt string
		Body       template.HTML
		Offset     int
	}{
		Title:   Title,
		Palette: in.Scale.Palette.Key(),
		Body:    template.HTML(body.String()), //nolint:gosec // built from escaped parts above
		Offset:  domain.TooltipOffset,
	}
	if !in.RenderedAt.IsZero() {
		data.RenderedAt = in.RenderedAt.UTC().Format(time.RFC3339)
	}

	if err := r.page.Execute(w, data); err != nil {
		return fmt.Errorf("render: write page: %w", err)
	}
	return nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="palette" content="{{.Palette}}">
{{- if .RenderedAt}}
<meta name="rendered-at" content="{{.RenderedAt}}">
{{- end}}
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
#choropleth-map-container { display: flex; flex-direction: column; align-items: center; }
#legend text { font-size: 10px; }
.county { stroke: none; }
.county:hover { stroke: #222; stroke-width: 0.5; }
#tooltip { position: absolute; margin: 0; padding: 4px 8px; background: rgba(255,255,255,0.9); border: 1px solid #888; pointer-events: none; }
.tooltip--hidden { visibility: hidden; }
</style>
</head>
<body>
{{.Body}}
<script>
(function () {
  var tip = document.getElementById("tooltip");
  var offset = {{.Offset}};
  document.querySelectorAll("#chropleth-map .county").forEach(function (el) {
    el.addEventListener("mouseover", function (ev) {
      tip.classList.remove("tooltip--hidden");
      tip.style.left = ev.pageX + offset + "px";
      tip.style.top = ev.pageY + offset + "px";
      tip.setAttribute("data-education", el.getAttribute("data-tooltip-education"));
      tip.textContent = el.getAttribute("data-tooltip");
    });
    el.addEventListener("mouseout", function () {
      tip.classList.add("tooltip--hidden");
    });
  });
})();
</script>
</body>
</html>
`

// errWriter remembers the first write error so the svg calls, which do not
// return errors, can be checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
