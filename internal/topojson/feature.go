package topojson

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/twpayne/go-geom"
)

// Features converts the named object into county features, one per polygonal
// geometry. Geometries of other types are skipped.
func Features(t *Topology, object string) ([]domain.CountyFeature, error) {
	obj, ok := t.Objects[object]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, object)
	}

	s := &stitcher{arcs: t.absoluteArcs()}

	var features []domain.CountyFeature
	var walk func(g Geometry) error
	walk = func(g Geometry) error {
		switch g.Type {
		case "GeometryCollection":
			for _, child := range g.Geometries {
				if err := walk(child); err != nil {
					return err
				}
			}
			return nil
		case "Polygon", "MultiPolygon":
			mp, err := s.multiPolygon(g)
			if err != nil {
				return fmt.Errorf("geometry %d: %w", g.ID.Value, err)
			}
			features = append(features, domain.CountyFeature{ID: g.ID.Value, Geometry: mp})
			return nil
		default:
			return nil
		}
	}
	if err := walk(obj); err != nil {
		return nil, err
	}
	return features, nil
}

type stitcher struct {
	arcs [][][2]float64
}

func (s *stitcher) multiPolygon(g Geometry) (*geom.MultiPolygon, error) {
	var polys [][][]int
	switch g.Type {
	case "Polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return nil, fmt.Errorf("polygon arcs: %w", err)
		}
		polys = [][][]int{rings}
	case "MultiPolygon":
		if err := json.Unmarshal(g.Arcs, &polys); err != nil {
			return nil, fmt.Errorf("multipolygon arcs: %w", err)
		}
	}

	coords := make([][][]geom.Coord, 0, len(polys))
	for _, rings := range polys {
		poly := make([][]geom.Coord, 0, len(rings))
		for _, ring := range rings {
			c, err := s.ring(ring)
			if err != nil {
				return nil, err
			}
			poly = append(poly, c)
		}
		coords = append(coords, poly)
	}
	return geom.NewMultiPolygon(geom.XY).SetCoords(coords)
}

// ring joins arcs end to start. Each arc after the first repeats the last
// position of its predecessor, which is dropped. A negative index ~i refers
// to arc i traversed backwards.
func (s *stitcher) ring(indexes []int) ([]geom.Coord, error) {
	var out []geom.Coord
	for n, idx := range indexes {
		reverse := idx < 0
		if reverse {
			idx = ^idx
		}
		if idx >= len(s.arcs) {
			return nil, fmt.Errorf("%w: %d of %d", ErrArcIndex, idx, len(s.arcs))
		}
		arc := s.arcs[idx]
		pts := make([]geom.Coord, len(arc))
		for i, p := range arc {
			j := i
			if reverse {
				j = len(arc) - 1 - i
			}
			pts[j] = geom.Coord{p[0], p[1]}
		}
		if n > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		out = append(out, pts...)
	}
	return out, nil
}
