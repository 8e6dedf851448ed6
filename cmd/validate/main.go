// Command validate checks a rendered choropleth page for structural and data
// integrity: required elements, legend swatches, county attributes, and, when
// an education fixture is supplied, agreement between every county path and
// its source record.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -page out/choropleth.html \
//	  -education data/mock/education.json \
//	  -scheme greens -colors 6
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/render"
	"golang.org/x/net/html"
)

// minLegendColors is the fewest distinct legend fills a usable map shows,
// capped at the palette size for smaller palettes.
const minLegendColors = 4

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	page := flag.String("page", "", "path or http(s) URL of the rendered page")
	education := flag.String("education", "", "optional education JSON fixture to cross-check county values")
	scheme := flag.String("scheme", domain.DefaultScheme, "palette scheme the page was rendered with")
	colors := flag.Int("colors", domain.DefaultPaletteSize, "palette size the page was rendered with")
	flag.Parse()

	if *page == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*page, *education, *scheme, *colors); code != 0 {
		os.Exit(code)
	}
}

func run(pagePath, educationPath, scheme string, colors int) int {
	fmt.Println("=== Choropleth Page Validation ===")
	fmt.Println()

	pal, err := domain.PaletteFor(scheme, colors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: palette: %v\n", err)
		return 1
	}

	doc, err := loadPage(pagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load page: %v\n", err)
		return 1
	}
	pg := scanPage(doc)

	var records []domain.EducationRecord
	if educationPath != "" {
		records, err = loadRecords(educationPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load education fixture: %v\n", err)
			return 1
		}
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateStructure(pg, pal),
		validateLegend(pg, pal),
		validateCounties(pg, pal),
	}
	if records != nil {
		phases = append(phases, validateData(pg, records, pal))
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Elements: %d counties, %d legend swatches, %d ticks, %d records\n",
		len(pg.counties), len(pg.legendRects), pg.ticks, len(records))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Page loading ──

func loadPage(src string) (*html.Node, error) {
	var r io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(src) //nolint:noctx // one-shot CLI
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: status %d", src, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()
	return html.Parse(r)
}

func loadRecords(path string) ([]domain.EducationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.EducationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// countyPath is one county path's inspectable attributes.
type countyPath struct {
	fips      string
	education string
	fill      string
	tooltip   string
	tipEdu    string
	d         string
}

// page collects the elements the phases inspect.
type page struct {
	byID        map[string]*html.Node
	meta        map[string]string
	legendRects []string // fills
	ticks       int
	counties    []countyPath
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func scanPage(doc *html.Node) *page {
	pg := &page{byID: make(map[string]*html.Node), meta: make(map[string]string)}
	var walk func(n *html.Node, inLegend, inAxis bool)
	walk = func(n *html.Node, inLegend, inAxis bool) {
		if n.Type == html.ElementNode {
			id, _ := attr(n, "id")
			if id != "" {
				pg.byID[id] = n
			}
			switch {
			case n.Data == "meta":
				name, _ := attr(n, "name")
				content, _ := attr(n, "content")
				if name != "" {
					pg.meta[name] = content
				}
			case n.Data == "svg" && id == "legend":
				inLegend = true
			case n.Data == "g" && id == "temp-axis":
				inAxis = true
			case n.Data == "rect" && inLegend && !inAxis:
				fill, _ := attr(n, "fill")
				pg.legendRects = append(pg.legendRects, fill)
			case n.Data == "g" && inAxis && hasClass(n, "tick"):
				pg.ticks++
			case n.Data == "path" && hasClass(n, "county"):
				c := countyPath{}
				c.fips, _ = attr(n, "data-fips")
				c.education, _ = attr(n, "data-education")
				c.fill, _ = attr(n, "fill")
				c.tooltip, _ = attr(n, "data-tooltip")
				c.tipEdu, _ = attr(n, "data-tooltip-education")
				c.d, _ = attr(n, "d")
				pg.counties = append(pg.counties, c)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLegend, inAxis)
		}
	}
	walk(doc, false, false)
	return pg
}

func inPalette(pal domain.Palette, fill string) bool {
	for _, c := range pal.Colors {
		if strings.EqualFold(c, fill) {
			return true
		}
	}
	return false
}

// ── Phase 1: Structure ──
// Validates the required page elements are present.

func validateStructure(pg *page, pal domain.Palette) *phase {
	p := &phase{name: "Phase 1: Structure (required elements)"}

	if n, ok := pg.byID["title"]; !ok {
		p.errorf("missing #title")
	} else if got := text(n); got != render.Title {
		p.errorf("#title: got %q, want %q", got, render.Title)
	}
	if n, ok := pg.byID["description"]; !ok {
		p.errorf("missing #description")
	} else if text(n) == "" {
		p.errorf("#description is empty")
	}
	if n, ok := pg.byID["tooltip"]; !ok {
		p.errorf("missing #tooltip")
	} else if !hasClass(n, "tooltip--hidden") {
		p.errorf("#tooltip should start hidden")
	}
	for _, id := range []string{"legend", "temp-axis", "chropleth-map"} {
		if _, ok := pg.byID[id]; !ok {
			p.errorf("missing #%s", id)
		}
	}
	if got, ok := pg.meta["palette"]; ok && got != pal.Key() {
		p.errorf("meta palette: got %q, want %q", got, pal.Key())
	}
	if ts, ok := pg.meta["rendered-at"]; ok {
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			p.errorf("meta rendered-at %q is not RFC3339", ts)
		}
	}
	return p
}

// ── Phase 2: Legend ──
// Validates one swatch per palette color and one tick per boundary.

func validateLegend(pg *page, pal domain.Palette) *phase {
	p := &phase{name: "Phase 2: Legend (swatches and ticks)"}

	if len(pg.legendRects) != pal.Size() {
		p.errorf("legend has %d swatches, want %d", len(pg.legendRects), pal.Size())
	}
	distinct := make(map[string]bool)
	for i, fill := range pg.legendRects {
		if !inPalette(pal, fill) {
			p.errorf("swatch %d: fill %q not in %s", i, fill, pal.Key())
		}
		distinct[strings.ToLower(fill)] = true
	}
	if want := min(minLegendColors, pal.Size()); len(distinct) < want {
		p.errorf("legend shows %d distinct colors, want at least %d", len(distinct), want)
	}
	if pg.ticks != pal.Size()+1 {
		p.errorf("axis has %d ticks, want %d", pg.ticks, pal.Size()+1)
	}
	return p
}

// ── Phase 3: Counties ──
// Validates every county path carries well-formed attributes.

func validateCounties(pg *page, pal domain.Palette) *phase {
	p := &phase{name: "Phase 3: Counties (path attributes)"}

	if len(pg.counties) == 0 {
		p.errorf("no county paths found")
		return p
	}
	seen := make(map[string]bool, len(pg.counties))
	for i, c := range pg.counties {
		if _, err := strconv.Atoi(c.fips); err != nil {
			p.errorf("county %d: data-fips %q is not an integer", i, c.fips)
		} else if seen[c.fips] {
			p.errorf("county %s: duplicate data-fips", c.fips)
		}
		seen[c.fips] = true

		if v, err := strconv.ParseFloat(c.education, 64); err != nil {
			p.errorf("county %s: data-education %q is not a number", c.fips, c.education)
		} else if v < 0 || v > 100 {
			p.errorf("county %s: data-education %v outside 0-100", c.fips, v)
		}
		if !inPalette(pal, c.fill) {
			p.errorf("county %s: fill %q not in %s", c.fips, c.fill, pal.Key())
		}
		if c.tooltip == "" {
			p.errorf("county %s: empty data-tooltip", c.fips)
		}
		if !strings.HasPrefix(c.d, "M") {
			p.errorf("county %s: path data does not start with a moveto", c.fips)
		}
	}
	return p
}

// ── Phase 4: Data ──
// Validates county values, tooltips, and fills against the source records.

func validateData(pg *page, records []domain.EducationRecord, pal domain.Palette) *phase {
	p := &phase{name: "Phase 4: Data (page vs education JSON)"}

	scale, err := domain.NewScale(records, pal)
	if err != nil {
		p.errorf("build scale: %v", err)
		return p
	}
	byFIPS := make(map[int]*domain.EducationRecord, len(records))
	for i := range records {
		if _, dup := byFIPS[records[i].FIPS]; !dup {
			byFIPS[records[i].FIPS] = &records[i]
		}
	}

	for _, c := range pg.counties {
		fips, err := strconv.Atoi(c.fips)
		if err != nil {
			continue // reported in phase 3
		}
		rec := byFIPS[fips]
		f := domain.CountyFeature{ID: fips, Education: rec}

		wantEdu := "0"
		if v, ok := f.EducationValue(); ok && v != 0 {
			wantEdu = domain.FormatPercent(v)
		}
		if c.education != wantEdu {
			p.errorf("county %d: data-education %q, want %q", fips, c.education, wantEdu)
		}
		var tip domain.Tooltip
		tip.Show(domain.HoverEvent{Feature: f})
		if c.tooltip != tip.Text {
			p.errorf("county %d: tooltip %q, want %q", fips, c.tooltip, tip.Text)
		}
		if c.tipEdu != tip.Education {
			p.errorf("county %d: data-tooltip-education %q, want %q", fips, c.tipEdu, tip.Education)
		}
		if want := scale.FeatureColor(f); !strings.EqualFold(c.fill, want) {
			p.errorf("county %d: fill %q, want %q", fips, c.fill, want)
		}
	}
	return p
}
