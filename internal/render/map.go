package render

import (
	"fmt"
	"html"

	svg "github.com/ajstarks/svgo"
	"github.com/couchcryptid/education-choropleth/internal/domain"
)

// CountyAttrs are the inspectable attributes of one county path.
type CountyAttrs struct {
	FIPS      int
	Education string
	Fill      string
	Tooltip   string
	// TooltipEducation is what the tooltip reports on hover; empty when the
	// county has no record.
	TooltipEducation string
}

// countyAttrs derives the attributes for a feature. Counties without a record
// report an education of "0" on the path. The tooltip fields come from the
// same Tooltip model the hover handler mirrors.
func countyAttrs(f domain.CountyFeature, s *domain.Scale) CountyAttrs {
	edu := "0"
	if v, ok := f.EducationValue(); ok && v != 0 {
		edu = domain.FormatPercent(v)
	}
	var tip domain.Tooltip
	tip.Show(domain.HoverEvent{Feature: f})
	return CountyAttrs{
		FIPS:             f.ID,
		Education:        edu,
		Fill:             s.FeatureColor(f),
		Tooltip:          tip.Text,
		TooltipEducation: tip.Education,
	}
}

func writeMap(c *svg.SVG, features []domain.CountyFeature, s *domain.Scale) {
	innerW := float64(mapWidth - 2*mapMargin)
	innerH := float64(mapHeight - 2*mapMargin)
	proj := FitSize(innerW, innerH, features)

	openSVG(c, mapWidth, mapHeight, `id="chropleth-map"`, `style="overflow: visible"`)
	c.Group(fmt.Sprintf(`transform="translate(%d,%d)"`, mapMargin, mapMargin))
	for _, f := range features {
		a := countyAttrs(f, s)
		c.Path(proj.PathData(f.Geometry),
			`class="county"`,
			fmt.Sprintf(`data-fips="%d"`, a.FIPS),
			fmt.Sprintf(`data-education="%s"`, a.Education),
			fmt.Sprintf(`fill="%s"`, a.Fill),
			fmt.Sprintf(`data-tooltip="%s"`, html.EscapeString(a.Tooltip)),
			fmt.Sprintf(`data-tooltip-education="%s"`, a.TooltipEducation),
		)
	}
	c.Gend()
	c.End()
}
