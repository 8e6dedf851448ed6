package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-moremath/scale"
	svg "github.com/ajstarks/svgo"
	"github.com/couchcryptid/education-choropleth/internal/domain"
)

// legendAxis maps a value in [min, max] onto legend pixels.
type legendAxis struct {
	lin scale.Linear
}

func newLegendAxis(t domain.Thresholds) legendAxis {
	return legendAxis{lin: scale.Linear{Min: t.Min, Max: t.Max}}
}

func (a legendAxis) x(v float64) float64 {
	if a.lin.Max == a.lin.Min {
		return 0
	}
	return a.lin.Map(v) * legendWidth
}

// legendRect is one swatch in legend pixel space. Positions are not rounded
// so adjacent swatches share an edge.
type legendRect struct {
	X, Width float64
	Fill     string
}

// legendRects places one swatch per bucket, spanning the bucket's lower to
// upper boundary.
func legendRects(s *domain.Scale) []legendRect {
	t := s.Thresholds
	axis := newLegendAxis(t)
	buckets := t.Buckets(s.Palette)
	out := make([]legendRect, len(buckets))
	for i, b := range buckets {
		out[i] = legendRect{
			X:     axis.x(b.Lower),
			Width: axis.x(b.Upper) - axis.x(b.Lower),
			Fill:  b.Color,
		}
	}
	return out
}

// TickLabel formats a legend boundary as a whole percentage.
func TickLabel(v float64) string {
	return strconv.Itoa(int(math.Round(v))) + "%"
}

func writeLegend(c *svg.SVG, s *domain.Scale) {
	openSVG(c, legendWidth, legendHeight, `id="legend"`, `style="overflow: visible"`)
	for _, r := range legendRects(s) {
		fmt.Fprintf(c.Writer, `<rect x="%s" y="0" width="%s" height="%d" fill="%s" />`+"\n",
			formatCoord(r.X), formatCoord(r.Width), legendHeight, r.Fill)
	}

	axis := newLegendAxis(s.Thresholds)
	c.Group(`id="temp-axis"`, fmt.Sprintf(`transform="translate(0,%d)"`, legendHeight))
	c.Path(fmt.Sprintf("M0,6V0H%dV6", legendWidth), `class="domain"`, `stroke="currentColor"`, `fill="none"`)
	for _, b := range s.Thresholds.Boundaries {
		c.Group(`class="tick"`, fmt.Sprintf(`transform="translate(%s,0)"`, formatCoord(axis.x(b))))
		c.Line(0, 0, 0, 6, `stroke="currentColor"`)
		c.Text(0, 9, TickLabel(b), `dy="0.71em"`, `text-anchor="middle"`, `fill="currentColor"`)
		c.Gend()
	}
	c.Gend()
	c.End()
}
