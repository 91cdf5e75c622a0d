package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/sightings-service/internal/domain"
)

var (
	// ErrMissingHeader is returned for a file with no header row.
	ErrMissingHeader = errors.New("missing header row")

	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMissingValue is returned when a required numeric cell is empty.
	ErrMissingValue = errors.New("missing required value")

	// ErrNonFinite is returned for NaN or infinite numeric cells, which have
	// no JSON encoding.
	ErrNonFinite = errors.New("number must be finite")
)

const byteOrderMark = "\ufeff"

// ParseError reports where in the file a row failed to decode.
// Line is 1-based and counts the header as line 1.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader reads sightings from a CSV file on disk.
// It implements pipeline.Extractor.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Load opens the file and decodes every data row. The whole load fails on the
// first bad row; no partial result is returned.
func (l *Loader) Load(ctx context.Context) ([]domain.Sighting, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	sightings, err := Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.path, err)
	}

	l.logger.Debug("csv decoded", "path", l.path, "rows", len(sightings))
	return sightings, nil
}

// Decode reads a header row followed by data rows and returns one Sighting per
// data row in input order. Columns are matched by header name; columns not in
// the schema are ignored.
func Decode(ctx context.Context, r io.Reader) ([]domain.Sighting, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Err: ErrMissingHeader}
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	bound, err := bindColumns(header)
	if err != nil {
		return nil, err
	}

	var sightings []domain.Sighting
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}

		var s domain.Sighting
		for _, b := range bound {
			if err := b.col.set(&s, record[b.index]); err != nil {
				line, _ := reader.FieldPos(b.index)
				return nil, &ParseError{Line: line, Column: b.col.name, Err: err}
			}
		}
		sightings = append(sightings, s)
	}

	if sightings == nil {
		sightings = []domain.Sighting{}
	}
	return sightings, nil
}

type boundColumn struct {
	col   column
	index int
}

// bindColumns resolves each schema column to its position in the header.
func bindColumns(header []string) ([]boundColumn, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, byteOrderMark)
		}
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	bound := make([]boundColumn, 0, len(columns))
	for _, c := range columns {
		i, ok := idx[c.name]
		if !ok {
			if c.required {
				return nil, &ParseError{Line: 1, Column: c.name, Err: ErrMissingColumn}
			}
			continue
		}
		bound = append(bound, boundColumn{col: c, index: i})
	}
	return bound, nil
}

func wrapCSVError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: err}
	}
	return fmt.Errorf("read csv: %w", err)
}

// column describes how one CSV column populates a Sighting.
type column struct {
	name     string
	required bool
	set      func(s *domain.Sighting, value string) error
}

var columns = []column{
	{name: "observed", set: optionalString(func(s *domain.Sighting) **string { return &s.Observed })},
	{name: "location_details", set: optionalString(func(s *domain.Sighting) **string { return &s.LocationDetails })},
	{name: "county", required: true, set: func(s *domain.Sighting, v string) error { s.County = v; return nil }},
	{name: "state", required: true, set: func(s *domain.Sighting, v string) error { s.State = v; return nil }},
	{name: "title", set: optionalString(func(s *domain.Sighting) **string { return &s.Title })},
	{name: "latitude", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.Latitude })},
	{name: "longitude", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.Longitude })},
	{name: "date", set: optionalString(func(s *domain.Sighting) **string { return &s.Date })},
	{name: "number", required: true, set: requiredFloat(func(s *domain.Sighting) *float64 { return &s.Number })},
	{name: "classification", required: true, set: func(s *domain.Sighting, v string) error { s.Classification = v; return nil }},
	{name: "geohash", set: optionalString(func(s *domain.Sighting) **string { return &s.Geohash })},
	{name: "temperature_high", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.TemperatureHigh })},
	{name: "temperature_mid", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.TemperatureMid })},
	{name: "temperature_low", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.TemperatureLow })},
	{name: "dew_point", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.DewPoint })},
	{name: "humidity", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.Humidity })},
	{name: "cloud_cover", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.CloudCover })},
	{name: "moon_phase", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.MoonPhase })},
	{name: "precip_intensity", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.PrecipIntensity })},
	{name: "precip_probability", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.PrecipProbability })},
	{name: "precip_type", set: optionalString(func(s *domain.Sighting) **string { return &s.PrecipType })},
	{name: "pressure", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.Pressure })},
	{name: "summary", set: optionalString(func(s *domain.Sighting) **string { return &s.Summary })},
	{name: "uv_index", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.UVIndex })},
	{name: "visibility", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.Visibility })},
	{name: "wind_bearing", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.WindBearing })},
	{name: "wind_speed", set: optionalFloat(func(s *domain.Sighting) **float64 { return &s.WindSpeed })},
}

// Columns returns the schema column names in dataset order.
func Columns() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// optionalString leaves the field nil for an empty cell.
func optionalString(field func(*domain.Sighting) **string) func(*domain.Sighting, string) error {
	return func(s *domain.Sighting, v string) error {
		if v == "" {
			return nil
		}
		*field(s) = &v
		return nil
	}
}

// optionalFloat leaves the field nil for an empty cell and rejects anything
// parseFinite does not accept.
func optionalFloat(field func(*domain.Sighting) **float64) func(*domain.Sighting, string) error {
	return func(s *domain.Sighting, v string) error {
		if v == "" {
			return nil
		}
		f, err := parseFinite(v)
		if err != nil {
			return err
		}
		*field(s) = &f
		return nil
	}
}

func requiredFloat(field func(*domain.Sighting) *float64) func(*domain.Sighting, string) error {
	return func(s *domain.Sighting, v string) error {
		if v == "" {
			return ErrMissingValue
		}
		f, err := parseFinite(v)
		if err != nil {
			return err
		}
		*field(s) = f
		return nil
	}
}

func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNonFinite
	}
	return f, nil
}
