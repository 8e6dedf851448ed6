package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/twpayne/go-geom"
)

// Projection is an identity projection with uniform scale and translation.
// The topology is already in planar screen coordinates, so no Y flip is applied.
type Projection struct {
	K  float64
	TX float64
	TY float64
}

// FitSize scales and centers the features' bounding box inside a width x height area,
// preserving aspect ratio.
func FitSize(width, height float64, features []domain.CountyFeature) Projection {
	b := geom.NewBounds(geom.XY)
	found := false
	for _, f := range features {
		if f.Geometry == nil || f.Geometry.Empty() {
			continue
		}
		b.Extend(f.Geometry)
		found = true
	}
	if !found {
		return Projection{K: 1}
	}

	x0, y0 := b.Min(0), b.Min(1)
	x1, y1 := b.Max(0), b.Max(1)
	dx, dy := x1-x0, y1-y0

	k := math.Inf(1)
	if dx > 0 {
		k = width / dx
	}
	if dy > 0 {
		k = math.Min(k, height/dy)
	}
	if math.IsInf(k, 1) {
		k = 1
	}

	return Projection{
		K:  k,
		TX: (width - k*(x0+x1)) / 2,
		TY: (height - k*(y0+y1)) / 2,
	}
}

// Apply projects a planar coordinate.
func (p Projection) Apply(c geom.Coord) (float64, float64) {
	return p.K*c.X() + p.TX, p.K*c.Y() + p.TY
}

// PathData returns SVG path data for a multipolygon: one closed subpath per ring.
func (p Projection) PathData(mp *geom.MultiPolygon) string {
	if mp == nil {
		return ""
	}
	var sb strings.Builder
	for _, poly := range mp.Coords() {
		for _, ring := range poly {
			if n := len(ring); n > 1 && ring[0].Equal(geom.XY, ring[n-1]) {
				ring = ring[:n-1]
			}
			if len(ring) == 0 {
				continue
			}
			for i, c := range ring {
				if i == 0 {
					sb.WriteByte('M')
				} else {
					sb.WriteByte('L')
				}
				x, y := p.Apply(c)
				sb.WriteString(formatCoord(x))
				sb.WriteByte(',')
				sb.WriteString(formatCoord(y))
			}
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// formatCoord prints at most three decimals and no trailing zeros.
func formatCoord(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
