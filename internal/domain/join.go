package domain

// Join attaches to each feature the first record whose FIPS equals the
// feature ID and returns how many features matched. Unmatched features keep
// a nil Education. The scan is linear per feature; the county dataset is small
// and fixed so no index is built.
func Join(features []CountyFeature, records []EducationRecord) int {
	matched := 0
	for i := range features {
		features[i].Education = nil
		for j := range records {
			if records[j].FIPS == features[i].ID {
				features[i].Education = &records[j]
				matched++
				break
			}
		}
	}
	return matched
}
