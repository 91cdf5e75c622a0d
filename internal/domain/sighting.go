package domain

import (
	"errors"
	"strconv"
)

// KeyPrefix namespaces sighting documents in the store.
const KeyPrefix = "sighting:"

var (
	// ErrNotFound is returned when no document exists for a requested identifier.
	ErrNotFound = errors.New("sighting not found")

	// ErrMalformedDocument is returned when a stored document cannot be decoded
	// back into a Sighting.
	ErrMalformedDocument = errors.New("malformed sighting document")
)

// Sighting is a single BFRO report. Optional columns are pointers so that an
// absent value round-trips as JSON null rather than a zero value.
type Sighting struct {
	Observed          *string  `json:"observed"`
	LocationDetails   *string  `json:"location_details"`
	County            string   `json:"county"`
	State             string   `json:"state"`
	Title             *string  `json:"title"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Date              *string  `json:"date"`
	Number            float64  `json:"number"`
	Classification    string   `json:"classification"`
	Geohash           *string  `json:"geohash"`
	TemperatureHigh   *float64 `json:"temperature_high"`
	TemperatureMid    *float64 `json:"temperature_mid"`
	TemperatureLow    *float64 `json:"temperature_low"`
	DewPoint          *float64 `json:"dew_point"`
	Humidity          *float64 `json:"humidity"`
	CloudCover        *float64 `json:"cloud_cover"`
	MoonPhase         *float64 `json:"moon_phase"`
	PrecipIntensity   *float64 `json:"precip_intensity"`
	PrecipProbability *float64 `json:"precip_probability"`
	PrecipType        *string  `json:"precip_type"`
	Pressure          *float64 `json:"pressure"`
	Summary           *string  `json:"summary"`
	UVIndex           *float64 `json:"uv_index"`
	Visibility        *float64 `json:"visibility"`
	WindBearing       *float64 `json:"wind_bearing"`
	WindSpeed         *float64 `json:"wind_speed"`
}

// Key returns the store key for this sighting.
func (s Sighting) Key() string {
	return Key(s.Number)
}

// Key builds the store key for a report number using the shortest decimal
// representation that round-trips, so 1.0 becomes "sighting:1".
func Key(number float64) string {
	return KeyPrefix + strconv.FormatFloat(number, 'f', -1, 64)
}

// KeyForID builds the store key for an integer identifier taken from a
// request path. It matches Key for every integral report number.
func KeyForID(id int64) string {
	return KeyPrefix + strconv.FormatInt(id, 10)
}
