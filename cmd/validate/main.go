// Command validate checks a sightings CSV before it is loaded: it decodes every
// row with the service loader, then reports schema coverage, identifier
// collisions, identifiers that cannot be requested over HTTP, and per-column
// null counts. Nothing is written to the store.
//
// Usage:
//
//	go run ./cmd/validate -csv data/bfro_reports_geocoded.csv [-allow-duplicates]
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/couchcryptid/sightings-service/internal/adapter/csvfile"
	"github.com/couchcryptid/sightings-service/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "data/bfro_reports_geocoded.csv", "path to the sightings CSV")
	allowDuplicates := flag.Bool("allow-duplicates", false, "report duplicate identifiers without failing")
	flag.Parse()

	if code := run(os.Stdout, *csvPath, *allowDuplicates); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, csvPath string, allowDuplicates bool) int {
	fmt.Fprintln(out, "=== Sightings CSV Validation ===")
	fmt.Fprintln(out)

	header, err := readHeader(csvPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read header: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sightings, err := csvfile.NewLoader(csvPath, logger).Load(context.Background())
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	dupes := validateUniqueness(sightings)
	phases := []*phase{
		validateHeader(header),
		dupes,
		validateAddressable(sightings),
		validateRoundTrip(sightings),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			if p == dupes && allowDuplicates {
				status = fmt.Sprintf("WARN (%d duplicates)", len(p.errors))
			} else {
				allPassed = false
			}
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d\n", len(sightings))
	printNullCounts(out, sightings)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return csv.NewReader(f).Read()
}

// ── Validation phases ──

// validateHeader requires every schema column, including optional ones, so a
// truncated export is caught before it silently loads as nulls.
func validateHeader(header []string) *phase {
	p := &phase{name: "Header covers schema"}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range csvfile.Columns() {
		if !present[col] {
			p.errorf("missing column %q", col)
		}
	}
	return p
}

// validateUniqueness reports identifiers shared by more than one row. Only the
// last such row survives a load.
func validateUniqueness(sightings []domain.Sighting) *phase {
	p := &phase{name: "Identifiers unique"}
	rows := make(map[string][]int)
	var order []string
	for i, s := range sightings {
		key := s.Key()
		if _, seen := rows[key]; !seen {
			order = append(order, key)
		}
		rows[key] = append(rows[key], i+1)
	}
	for _, key := range order {
		if seen := rows[key]; len(seen) > 1 {
			p.errorf("%s appears on rows %v; row %d wins", key, seen, seen[len(seen)-1])
		}
	}
	return p
}

// validateAddressable flags identifiers that GET /sightings/{id} cannot reach
// because the route only accepts 64-bit integers.
func validateAddressable(sightings []domain.Sighting) *phase {
	p := &phase{name: "Identifiers addressable over HTTP"}
	for i, s := range sightings {
		n := s.Number
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			p.errorf("row %d: number %v is not a 64-bit integer", i+1, n)
		}
	}
	return p
}

// validateRoundTrip serializes each record the way the store writer does and
// decodes it back, the way a lookup does.
func validateRoundTrip(sightings []domain.Sighting) *phase {
	p := &phase{name: "JSON round trip"}
	for i, s := range sightings {
		data, err := json.Marshal(s)
		if err != nil {
			p.errorf("row %d: encode: %v", i+1, err)
			continue
		}
		var back domain.Sighting
		if err := json.Unmarshal(data, &back); err != nil {
			p.errorf("row %d: decode: %v", i+1, err)
			continue
		}
		if diff := cmp.Diff(s, back); diff != "" {
			p.errorf("row %d: mismatch (-csv +json):\n%s", i+1, diff)
		}
	}
	return p
}

// printNullCounts lists how many rows leave each optional column empty.
func printNullCounts(out io.Writer, sightings []domain.Sighting) {
	counts := make(map[string]int)
	for _, s := range sightings {
		data, err := json.Marshal(s)
		if err != nil {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		for k, v := range fields {
			if v == nil {
				counts[k]++
			}
		}
	}
	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Null values per column:")
	for _, k := range names {
		fmt.Fprintf(out, "  %-20s %d\n", k, counts[k])
	}
}
