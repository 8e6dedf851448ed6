// Package topojson decodes TopoJSON topologies into county features.
//
// Only the subset needed for boundary maps is supported: quantized or raw
// arcs, and Polygon, MultiPolygon and GeometryCollection geometries.
package topojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrObjectNotFound = errors.New("topology object not found")
	ErrArcIndex       = errors.New("arc index out of range")
)

// Topology is the top-level TopoJSON document.
type Topology struct {
	Type      string              `json:"type"`
	Transform *Transform          `json:"transform,omitempty"`
	Arcs      [][][]float64       `json:"arcs"`
	Objects   map[string]Geometry `json:"objects"`
}

// Transform dequantizes delta-encoded arc positions.
type Transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

// Geometry is a TopoJSON geometry object. Arcs holds the raw arc index
// nesting, whose depth depends on Type.
type Geometry struct {
	Type       string          `json:"type"`
	ID         ID              `json:"id,omitempty"`
	Arcs       json.RawMessage `json:"arcs,omitempty"`
	Geometries []Geometry      `json:"geometries,omitempty"`
}

// ID is a geometry identifier encoded either as a JSON number or a numeric string.
type ID struct {
	Value int
	Valid bool
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("geometry id %s: %w", b, err)
	}
	*id = ID{Value: v, Valid: true}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(id.Value)), nil
}

// Decode reads a topology document.
func Decode(r io.Reader) (*Topology, error) {
	var t Topology
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if t.Type != "Topology" {
		return nil, fmt.Errorf("decode topology: unexpected type %q", t.Type)
	}
	return &t, nil
}

// absoluteArcs returns every arc with positions dequantized. Quantized
// topologies store the first position absolute and the rest as deltas.
func (t *Topology) absoluteArcs() [][][2]float64 {
	out := make([][][2]float64, len(t.Arcs))
	for i, arc := range t.Arcs {
		pts := make([][2]float64, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				pts = append(pts, [2]float64{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, [2]float64{
				x*t.Transform.Scale[0] + t.Transform.Translate[0],
				y*t.Transform.Scale[1] + t.Transform.Translate[1],
			})
		}
		out[i] = pts
	}
	return out
}
