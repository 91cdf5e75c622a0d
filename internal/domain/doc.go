// Package domain models Bigfoot Field Researchers Organization (BFRO) sighting
// reports as stored and served by this service.
//
// # Data Source
//
// Reports come from the geocoded BFRO dataset, a single CSV file with one row
// per report (bfro_reports_geocoded.csv). Each row carries the free-text
// report, its location, a report classification and the weather conditions
// on the reported date. Weather columns are frequently blank.
//
// # Columns
//
// Required:
//
//	county          county name, e.g. "Klamath County"
//	state           US state or Canadian province name
//	number          BFRO report number, used as the identifier
//	classification  "Class A", "Class B" or "Class C"
//
// Everything else is optional and decodes to a nil pointer when the cell is
// empty. Numeric weather columns (temperature_*, dew_point, humidity, ...)
// are floats; precip_type and summary are text.
//
// # Identifiers
//
// The report number is declared as a float in the dataset. It is formatted
// with the shortest representation that round-trips (1.0 -> "1",
// 12.5 -> "12.5") to build the store key "sighting:<number>". See [Key].
// The dataset does not guarantee uniqueness; a later row with the same number
// replaces the earlier document.
package domain
