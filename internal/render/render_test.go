package render

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x0, y0, size float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}}})
}

func testPalette() domain.Palette {
	return domain.Palette{Name: "test", Colors: []string{"#c0", "#c1", "#c2", "#c3"}}
}

func testInput(t *testing.T) Input {
	t.Helper()
	records := []domain.EducationRecord{
		{FIPS: 1001, AreaName: "Autauga County", State: "AL", BachelorsOrHigher: 100},
		{FIPS: 1003, AreaName: "O'Brien County", State: "IA", BachelorsOrHigher: 60},
		{FIPS: 1005, AreaName: "Barbour County", State: "AL", BachelorsOrHigher: 0},
	}
	features := []domain.CountyFeature{
		{ID: 1001, Geometry: square(0, 0, 10)},
		{ID: 1003, Geometry: square(10, 0, 10)},
		{ID: 1005, Geometry: square(20, 0, 10)},
		{ID: 1007, Geometry: square(30, 0, 10)},
	}
	domain.Join(features, records)
	s, err := domain.NewScale(records, testPalette())
	require.NoError(t, err)
	return Input{Features: features, Scale: s}
}

func TestFitSize(t *testing.T) {
	features := []domain.CountyFeature{{ID: 1, Geometry: square(0, 0, 10)}}
	p := FitSize(760, 360, features)

	assert.Equal(t, 36.0, p.K)
	assert.Equal(t, 200.0, p.TX)
	assert.Equal(t, 0.0, p.TY)
	assert.Equal(t, "M200,0L560,0L560,360L200,360Z", p.PathData(features[0].Geometry))
}

func TestFitSize_Empty(t *testing.T) {
	p := FitSize(760, 360, []domain.CountyFeature{{ID: 1}})
	assert.Equal(t, Projection{K: 1}, p)
	assert.Empty(t, p.PathData(nil))
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "1.235", formatCoord(1.23456))
	assert.Equal(t, "12", formatCoord(12.0001))
	assert.Equal(t, "0", formatCoord(-0.0001))
}

func TestLegendRects(t *testing.T) {
	in := testInput(t)
	rects := legendRects(in.Scale)

	require.Len(t, rects, 4)
	for i, r := range rects {
		assert.InDelta(t, float64(i*75), r.X, 1e-9)
		assert.InDelta(t, 75, r.Width, 1e-9)
		assert.Equal(t, in.Scale.Palette.Colors[i], r.Fill)
	}
}

func TestLegendRects_Contiguous(t *testing.T) {
	records := make([]domain.EducationRecord, 0, 101)
	for v := 0; v <= 100; v++ {
		records = append(records, domain.EducationRecord{FIPS: v + 1, BachelorsOrHigher: float64(v)})
	}
	pal, err := domain.PaletteFor("greens", 7)
	require.NoError(t, err)
	s, err := domain.NewScale(records, pal)
	require.NoError(t, err)

	rects := legendRects(s)
	require.Len(t, rects, 7)
	assert.InDelta(t, 0, rects[0].X, 1e-9)
	for i := 1; i < len(rects); i++ {
		assert.InDelta(t, rects[i-1].X+rects[i-1].Width, rects[i].X, 1e-9, "swatch %d", i)
	}
	last := rects[len(rects)-1]
	assert.InDelta(t, float64(legendWidth), last.X+last.Width, 1e-9)
}

func TestLegendRects_Degenerate(t *testing.T) {
	records := []domain.EducationRecord{{FIPS: 1, BachelorsOrHigher: 30}, {FIPS: 2, BachelorsOrHigher: 30}}
	s, err := domain.NewScale(records, testPalette())
	require.NoError(t, err)

	for _, r := range legendRects(s) {
		assert.Zero(t, r.X)
		assert.Zero(t, r.Width)
	}
}

func TestTickLabel(t *testing.T) {
	assert.Equal(t, "3%", TickLabel(2.6))
	assert.Equal(t, "75%", TickLabel(75.4))
	assert.Equal(t, "0%", TickLabel(0))
}

func TestCountyAttrs(t *testing.T) {
	in := testInput(t)

	a := countyAttrs(in.Features[1], in.Scale)
	assert.Equal(t, CountyAttrs{
		FIPS:             1003,
		Education:        "60",
		Fill:             "#c2",
		Tooltip:          "O'Brien County, IA: 60%",
		TooltipEducation: "60",
	}, a)

	zero := countyAttrs(in.Features[2], in.Scale)
	assert.Equal(t, "0", zero.Education)
	assert.Equal(t, "#c0", zero.Fill)
	assert.Equal(t, "Barbour County, AL: 0%", zero.Tooltip)
	assert.Equal(t, "0", zero.TooltipEducation)

	missing := countyAttrs(in.Features[3], in.Scale)
	assert.Equal(t, "0", missing.Education)
	assert.Equal(t, "#c0", missing.Fill)
	assert.Equal(t, domain.NoDataText, missing.Tooltip)
	assert.Empty(t, missing.TooltipEducation, "tooltip for a county without a record carries no education")
}

func TestCountyAttrs_MatchesTooltipModel(t *testing.T) {
	in := testInput(t)
	for _, f := range in.Features {
		var tip domain.Tooltip
		tip.Show(domain.HoverEvent{PageX: 5, PageY: 7, Feature: f})

		a := countyAttrs(f, in.Scale)
		assert.Equal(t, tip.Text, a.Tooltip, "fips %d", f.ID)
		assert.Equal(t, tip.Education, a.TooltipEducation, "fips %d", f.ID)
	}
}

func TestRenderer_Fragment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Fragment(&buf, testInput(t)))
	out := buf.String()

	assert.Contains(t, out, `<h2 id="title">United States Educational Attainment</h2>`)
	assert.Contains(t, out, `<p id="description">Percentage of adults age 25 and older with a bachelor&#39;s degree or higher (2010-2014)</p>`)
	assert.Contains(t, out, `id="legend"`)
	assert.Contains(t, out, `id="temp-axis"`)
	assert.Contains(t, out, `<pre id="tooltip" class="tooltip--hidden"></pre>`)
	assert.Contains(t, out, `id="chropleth-map"`)
	assert.Contains(t, out, `transform="translate(20,20)"`)

	assert.Equal(t, 4, strings.Count(out, "<rect "))
	assert.Equal(t, 4, strings.Count(out, `class="county"`))
	assert.Equal(t, 5, strings.Count(out, `class="tick"`))
	for _, label := range []string{">0%<", ">25%<", ">50%<", ">75%<", ">100%<"} {
		assert.Contains(t, out, label)
	}

	assert.Contains(t, out, `data-fips="1001"`)
	assert.Contains(t, out, `data-education="100"`)
	assert.Contains(t, out, `data-tooltip="O&#39;Brien County, IA: 60%"`)
	assert.Contains(t, out, `data-tooltip="No data found"`)
	assert.Contains(t, out, `data-tooltip-education="60"`)
	assert.Contains(t, out, `data-tooltip-education=""`)

	assert.Contains(t, out, `<rect x="75" y="0" width="75" height="10" fill="#c1" />`)
	assert.NotContains(t, out, "<?xml", "inline svg must not carry an XML declaration")
	assert.Equal(t, 2, strings.Count(out, `<svg width=`))
	assert.Equal(t, 2, strings.Count(out, `xmlns="http://www.w3.org/2000/svg"`))
	assert.Equal(t, 2, strings.Count(out, "</svg>"))
}

func TestRenderer_Page(t *testing.T) {
	in := testInput(t)
	in.RenderedAt = time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, New().Page(&buf, in))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<meta name="palette" content="test-4">`)
	assert.Contains(t, out, `<meta name="rendered-at" content="2024-04-26T15:00:00Z">`)
	assert.Contains(t, out, `<title>United States Educational Attainment</title>`)
	assert.Contains(t, out, `id="choropleth-map-container"`)
	assert.Contains(t, out, `addEventListener("mouseover"`)
	assert.Regexp(t, `var offset =\s*10\s*;`, out)
	assert.Contains(t, out, `el.getAttribute("data-tooltip-education")`)
	assert.NotContains(t, out, "<?xml")
}

func TestRenderer_NilScale(t *testing.T) {
	err := New().Fragment(io.Discard, Input{})
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderer_WriteError(t *testing.T) {
	err := New().Fragment(failingWriter{}, testInput(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
