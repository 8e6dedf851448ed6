package domain

import "github.com/twpayne/go-geom"

// EducationRecord is one row of the county educational-attainment dataset.
type EducationRecord struct {
	FIPS              int     `json:"fips"`
	AreaName          string  `json:"area_name"`
	State             string  `json:"state"`
	BachelorsOrHigher float64 `json:"bachelorsOrHigher"` // percent of adults 25+, 0-100
}

// CountyFeature is a county shape decoded from the boundary topology.
// Education is attached by Join and stays nil when no record matches.
type CountyFeature struct {
	ID        int
	Geometry  *geom.MultiPolygon
	Education *EducationRecord
}

// EducationValue returns the joined percentage and whether a record was joined.
func (f CountyFeature) EducationValue() (float64, bool) {
	if f.Education == nil {
		return 0, false
	}
	return f.Education.BachelorsOrHigher, true
}

// CountyExport is the flattened form of a joined county published to the export sink.
type CountyExport struct {
	FIPS              int     `json:"fips"`
	AreaName          string  `json:"area_name,omitempty"`
	State             string  `json:"state,omitempty"`
	BachelorsOrHigher float64 `json:"bachelors_or_higher"`
	Color             string  `json:"color"`
	Bucket            int     `json:"bucket"`
	HasData           bool    `json:"has_data"`
}

// ExportCounty flattens a joined feature using the given scale.
func ExportCounty(f CountyFeature, s *Scale) CountyExport {
	out := CountyExport{FIPS: f.ID}
	v, ok := f.EducationValue()
	if ok {
		out.AreaName = f.Education.AreaName
		out.State = f.Education.State
		out.BachelorsOrHigher = v
		out.HasData = true
	}
	out.Bucket = s.BucketFor(v, ok)
	out.Color = s.Palette.Colors[out.Bucket]
	return out
}
