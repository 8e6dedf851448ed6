// Package domain models county educational-attainment data and the color
// scale used to draw it as a choropleth.
//
// # Data Sources
//
// Two datasets published for the freeCodeCamp choropleth project:
//
//	counties.json            US county boundaries as TopoJSON; objects.counties
//	                         is a GeometryCollection whose geometries carry the
//	                         county FIPS code as an integer id.
//	for_user_education.json  Array of {fips, state, area_name, bachelorsOrHigher}
//	                         where bachelorsOrHigher is the percentage of adults
//	                         age 25 and older holding a bachelor's degree or higher
//	                         (2010-2014 ACS estimates).
//
// # Join
//
// Features are matched to records on feature.id == record.fips. The first
// matching record wins. Counties without a record are drawn as "no data".
//
// # Color Scale
//
// The observed range [min, max] of bachelorsOrHigher is cut into N buckets of
// equal width, N being the palette size. A value v maps to the bucket whose
// index equals the number of interior boundaries less than or equal to v:
//
//	min=0 max=100 N=4   boundaries 0 | 25 | 50 | 75 | 100
//	v=10 -> 0   v=25 -> 1   v=60 -> 2   v=100 -> 3
//
// Zero and missing values both map to bucket 0. The source data has no
// county at exactly 0%, so the two cases are not told apart; the rendered
// data-education attribute is "0" for both.
package domain
