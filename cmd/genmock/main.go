// Command genmock generates a synthetic county topology and matching
// education dataset for local runs and fixture-driven tests. Counties are laid
// out on a grid whose cells share edges, so the topology exercises shared and
// reversed arcs the same way the real county boundaries do.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -rows 12 -cols 20 -missing 17 \
//	  -topology-out data/mock/counties.json \
//	  -education-out data/mock/for_user_education.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/pipeline"
	"github.com/couchcryptid/education-choropleth/internal/topojson"
)

// cellSize is the side of one county cell in quantized units.
const cellSize = 10

var stateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 12, "grid rows (one state per row)")
	cols := flag.Int("cols", 20, "grid columns (counties per state)")
	missing := flag.Int("missing", 17, "omit every Nth county from the education data (0 keeps all)")
	seed := flag.Uint64("seed", 2014, "random seed for education values")
	topoOut := flag.String("topology-out", "", "output path for the county topology")
	eduOut := flag.String("education-out", "", "output path for the education records")
	flag.Parse()

	if *topoOut == "" || *eduOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -topology-out, -education-out")
	}
	if *rows < 1 || *rows > len(stateCodes) || *cols < 1 {
		return fmt.Errorf("grid must be 1-%d rows by at least 1 column", len(stateCodes))
	}

	topo := gridTopology(*rows, *cols)
	records := educationRecords(*rows, *cols, *missing, rand.New(rand.NewPCG(*seed, *seed)))

	// Decode what we built so a broken fixture fails here, not in the service.
	features, err := topojson.Features(topo, pipeline.CountiesObject)
	if err != nil {
		return fmt.Errorf("self-check topology: %w", err)
	}
	matched := domain.Join(features, records)
	log.Printf("counties: %d, records: %d, matched: %d", len(features), len(records), matched)

	if err := writeJSON(*topoOut, topo); err != nil {
		return fmt.Errorf("writing topology fixture: %w", err)
	}
	log.Printf("wrote topology fixture: %s", *topoOut)

	if err := writeJSON(*eduOut, records); err != nil {
		return fmt.Errorf("writing education fixture: %w", err)
	}
	log.Printf("wrote education fixture: %s", *eduOut)

	printStats(records)
	return nil
}

func fipsFor(r, c int) int {
	return (r+1)*1000 + 2*c + 1
}

// gridTopology builds a quantized topology of rows*cols square counties.
// Horizontal edge h(r,c) runs from (c,r) to (c+1,r); vertical edge v(r,c)
// runs from (c,r) to (c,r+1). Interior edges are shared by two cells.
func gridTopology(rows, cols int) *topojson.Topology {
	hCount := (rows + 1) * cols
	h := func(r, c int) int { return r*cols + c }
	v := func(r, c int) int { return hCount + r*(cols+1) + c }

	arcs := make([][][]float64, 0, hCount+rows*(cols+1))
	for r := 0; r <= rows; r++ {
		for c := 0; c < cols; c++ {
			arcs = append(arcs, [][]float64{{float64(c * cellSize), float64(r * cellSize)}, {cellSize, 0}})
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c <= cols; c++ {
			arcs = append(arcs, [][]float64{{float64(c * cellSize), float64(r * cellSize)}, {0, cellSize}})
		}
	}

	geometries := make([]topojson.Geometry, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ring := []int{h(r, c), v(r, c+1), ^h(r+1, c), ^v(r, c)}
			raw, _ := json.Marshal([][]int{ring})
			geometries = append(geometries, topojson.Geometry{
				Type: "Polygon",
				ID:   topojson.ID{Value: fipsFor(r, c), Valid: true},
				Arcs: raw,
			})
		}
	}

	return &topojson.Topology{
		Type: "Topology",
		Transform: &topojson.Transform{
			Scale:     [2]float64{0.25, 0.25},
			Translate: [2]float64{-125, 24},
		},
		Arcs: arcs,
		Objects: map[string]topojson.Geometry{
			pipeline.CountiesObject: {Type: "GeometryCollection", Geometries: geometries},
		},
	}
}

// educationRecords returns one record per grid cell, skipping every nth.
// Values trend upward across columns so the map shows a visible gradient.
func educationRecords(rows, cols, nth int, rng *rand.Rand) []domain.EducationRecord {
	records := make([]domain.EducationRecord, 0, rows*cols)
	i := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i++
			if nth > 0 && i%nth == 0 {
				continue
			}
			base := 5 + 50*float64(c)/float64(max(cols-1, 1))
			val := math.Round((base+rng.NormFloat64()*5)*10) / 10
			val = math.Min(math.Max(val, 1), 80)
			records = append(records, domain.EducationRecord{
				FIPS:              fipsFor(r, c),
				AreaName:          fmt.Sprintf("County %d", 2*c+1),
				State:             stateCodes[r],
				BachelorsOrHigher: val,
			})
		}
	}
	return records
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printStats(records []domain.EducationRecord) {
	if len(records) == 0 {
		return
	}
	scale, err := domain.NewScale(records, domain.DefaultPalette())
	if err != nil {
		log.Printf("stats: %v", err)
		return
	}
	counts := make([]int, scale.Palette.Size())
	for _, r := range records {
		counts[scale.BucketFor(r.BachelorsOrHigher, true)]++
	}
	fmt.Println("\n=== Bucket Distribution ===")
	for i, b := range scale.Thresholds.Buckets(scale.Palette) {
		fmt.Printf("  %s  %5.1f%% - %5.1f%%  %d\n", b.Color, b.Lower, b.Upper, counts[i])
	}
}
