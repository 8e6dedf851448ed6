package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

var ErrNoValues = errors.New("no values to build thresholds from")

// Thresholds partitions [Min, Max] into equal-width buckets.
//
// Interior holds the N-1 boundaries used by the step function. Boundaries is
// the full list [Min, Interior..., Max] used for legend ticks. When every
// input value is equal all boundaries collapse onto that value.
type Thresholds struct {
	Min        float64
	Max        float64
	Interior   []float64
	Boundaries []float64
}

// BuildThresholds splits the observed range of values into n equal-width buckets.
func BuildThresholds(values []float64, n int) (Thresholds, error) {
	if len(values) == 0 {
		return Thresholds{}, ErrNoValues
	}
	if n < 2 {
		return Thresholds{}, fmt.Errorf("%w: got %d", ErrPaletteTooSmall, n)
	}

	lo, hi := stats.Bounds(values)
	width := (hi - lo) / float64(n)

	interior := make([]float64, n-1)
	for i := 1; i < n; i++ {
		interior[i-1] = lo + width*float64(i)
	}

	boundaries := make([]float64, 0, n+1)
	boundaries = append(boundaries, lo)
	boundaries = append(boundaries, interior...)
	boundaries = append(boundaries, hi)

	return Thresholds{Min: lo, Max: hi, Interior: interior, Boundaries: boundaries}, nil
}

// Bucket returns the step-function index for v: values below Interior[0]
// map to 0, values at or above the last interior boundary map to len(Interior).
func (t Thresholds) Bucket(v float64) int {
	return sort.Search(len(t.Interior), func(i int) bool { return t.Interior[i] > v })
}

// Buckets returns one LegendBucket per palette color.
func (t Thresholds) Buckets(p Palette) []LegendBucket {
	out := make([]LegendBucket, 0, len(p.Colors))
	for i, c := range p.Colors {
		if i+1 >= len(t.Boundaries) {
			break
		}
		out = append(out, LegendBucket{Color: c, Lower: t.Boundaries[i], Upper: t.Boundaries[i+1]})
	}
	return out
}

// LegendBucket is one color swatch of the legend covering [Lower, Upper).
type LegendBucket struct {
	Color string
	Lower float64
	Upper float64
}

// Scale maps education percentages onto palette colors.
type Scale struct {
	Palette    Palette
	Thresholds Thresholds
}

// NewScale builds thresholds over the records' percentages for the palette.
func NewScale(records []EducationRecord, p Palette) (*Scale, error) {
	values := make([]float64, len(records))
	for i := range records {
		values[i] = records[i].BachelorsOrHigher
	}
	t, err := BuildThresholds(values, p.Size())
	if err != nil {
		return nil, fmt.Errorf("build thresholds: %w", err)
	}
	return &Scale{Palette: p, Thresholds: t}, nil
}

// BucketFor returns the palette index for a value. Absent and zero values
// both fall back to bucket 0, the "no data" color.
func (s *Scale) BucketFor(v float64, present bool) int {
	if !present || v == 0 {
		return 0
	}
	return s.Thresholds.Bucket(v)
}

// ColorFor returns the fill color for a value.
func (s *Scale) ColorFor(v float64, present bool) string {
	return s.Palette.Colors[s.BucketFor(v, present)]
}

// FeatureColor returns the fill color for a joined feature.
func (s *Scale) FeatureColor(f CountyFeature) string {
	return s.ColorFor(f.EducationValue())
}
