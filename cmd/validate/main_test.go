package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/render"
	"github.com/couchcryptid/education-choropleth/internal/topojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testTopology = `{
  "type": "Topology",
  "arcs": [
    [[0,0],[10,0],[10,10]],
    [[10,10],[0,10],[0,0]],
    [[10,0],[20,0],[20,10],[10,10]],
    [[20,0],[30,0],[30,10],[20,10],[20,0]]
  ],
  "objects": {"counties": {"type": "GeometryCollection", "geometries": [
    {"type": "Polygon", "id": 1001, "arcs": [[0, 1]]},
    {"type": "Polygon", "id": 1003, "arcs": [[2, -1]]},
    {"type": "Polygon", "id": 1005, "arcs": [[3]]}
  ]}}
}`

func testRecords() []domain.EducationRecord {
	return []domain.EducationRecord{
		{FIPS: 1001, AreaName: "Autauga County", State: "AL", BachelorsOrHigher: 12.5},
		{FIPS: 1003, AreaName: "O'Brien County", State: "IA", BachelorsOrHigher: 40},
		{FIPS: 9999, AreaName: "Elsewhere", State: "ZZ", BachelorsOrHigher: 70},
	}
}

func renderTestPage(t *testing.T, records []domain.EducationRecord) string {
	t.Helper()
	return renderTestPageWith(t, records, domain.DefaultPalette())
}

func renderTestPageWith(t *testing.T, records []domain.EducationRecord, pal domain.Palette) string {
	t.Helper()
	topo, err := topojson.Decode(strings.NewReader(testTopology))
	require.NoError(t, err)
	features, err := topojson.Features(topo, "counties")
	require.NoError(t, err)
	domain.Join(features, records)

	scale, err := domain.NewScale(records, pal)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, render.New().Page(&buf, render.Input{Features: features, Scale: scale}))
	return buf.String()
}

func scanString(t *testing.T, s string) *page {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return scanPage(doc)
}

func TestScanPage(t *testing.T) {
	pg := scanString(t, renderTestPage(t, testRecords()))

	assert.Contains(t, pg.byID, "title")
	assert.Contains(t, pg.byID, "tooltip")
	assert.Equal(t, "greens-6", pg.meta["palette"])
	assert.Len(t, pg.legendRects, 6)
	assert.Equal(t, 7, pg.ticks)
	require.Len(t, pg.counties, 3)
	assert.Equal(t, "1003", pg.counties[1].fips)
	assert.Equal(t, "O'Brien County, IA: 40%", pg.counties[1].tooltip, "entities are decoded")
	assert.Equal(t, "No data found", pg.counties[2].tooltip)
	assert.Equal(t, "40", pg.counties[1].tipEdu)
	assert.Empty(t, pg.counties[2].tipEdu)
}

func TestPhases_RenderedPagePasses(t *testing.T) {
	records := testRecords()
	pg := scanString(t, renderTestPage(t, records))
	pal := domain.DefaultPalette()

	for _, p := range []*phase{
		validateStructure(pg, pal),
		validateLegend(pg, pal),
		validateCounties(pg, pal),
		validateData(pg, records, pal),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestPhases_SmallPalettesPass(t *testing.T) {
	records := testRecords()
	for _, size := range []int{3, 4, 9} {
		pal, err := domain.PaletteFor("greens", size)
		require.NoError(t, err)
		pg := scanString(t, renderTestPageWith(t, records, pal))

		for _, p := range []*phase{
			validateStructure(pg, pal),
			validateLegend(pg, pal),
			validateCounties(pg, pal),
			validateData(pg, records, pal),
		} {
			assert.True(t, p.passed(), "%s (%s): %v", p.name, pal.Key(), p.errors)
		}
	}
}

func TestValidateLegend_TooFewDistinctColors(t *testing.T) {
	pal, err := domain.PaletteFor("greens", 3)
	require.NoError(t, err)
	pg := &page{legendRects: []string{pal.Colors[0], pal.Colors[0], pal.Colors[1]}, ticks: 4}

	p := validateLegend(pg, pal)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "want at least 3")
}

func TestValidateLegend_WrongPalette(t *testing.T) {
	pg := scanString(t, renderTestPage(t, testRecords()))
	blues, err := domain.PaletteFor("blues", 6)
	require.NoError(t, err)

	p := validateLegend(pg, blues)
	assert.False(t, p.passed())
}

func TestValidateData_DetectsMismatch(t *testing.T) {
	records := testRecords()
	pg := scanString(t, renderTestPage(t, records))

	changed := testRecords()
	changed[0].BachelorsOrHigher = 13
	p := validateData(pg, changed, domain.DefaultPalette())
	require.False(t, p.passed())
	assert.Contains(t, strings.Join(p.errors, "\n"), `county 1001: data-education "12.5", want "13"`)
}

func TestValidateStructure_MissingElements(t *testing.T) {
	pg := scanString(t, `<!DOCTYPE html><html><body><h2 id="title">Wrong</h2></body></html>`)
	p := validateStructure(pg, domain.DefaultPalette())
	require.False(t, p.passed())

	all := strings.Join(p.errors, "\n")
	assert.Contains(t, all, "#title")
	assert.Contains(t, all, "missing #description")
	assert.Contains(t, all, "missing #chropleth-map")
}

func TestValidateCounties_None(t *testing.T) {
	p := validateCounties(&page{}, domain.DefaultPalette())
	assert.Equal(t, []string{"no county paths found"}, p.errors)
}
