package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes used as the "outcome" label on LookupsTotal.
const (
	OutcomeFound     = "found"
	OutcomeNotFound  = "not_found"
	OutcomeBadID     = "bad_id"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Metrics holds the Prometheus counters and histograms for loading and serving sightings.
type Metrics struct {
	RecordsLoaded     prometheus.Counter
	DocumentsWritten  prometheus.Counter
	StoreWriteErrors  prometheus.Counter
	BulkWriteDuration prometheus.Histogram
	EventsPublished   prometheus.Counter

	LookupsTotal   *prometheus.CounterVec // labels: outcome={found,not_found,bad_id,malformed,error}
	LookupDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.DocumentsWritten,
		m.StoreWriteErrors,
		m.BulkWriteDuration,
		m.EventsPublished,
		m.LookupsTotal,
		m.LookupDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sightings",
			Name:      "records_loaded_total",
			Help:      "Total rows decoded from the source CSV.",
		}),
		DocumentsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sightings",
			Name:      "documents_written_total",
			Help:      "Total sighting documents written to the store.",
		}),
		StoreWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sightings",
			Name:      "store_write_errors_total",
			Help:      "Total bulk writes aborted by a store error.",
		}),
		BulkWriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sightings",
			Name:      "bulk_write_duration_seconds",
			Help:      "Wall-clock duration of a complete bulk write.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sightings",
			Name:      "events_published_total",
			Help:      "Total sighting events published to Kafka.",
		}),
		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sightings",
			Name:      "lookups_total",
			Help:      "Sighting lookups by outcome.",
		}, []string{"outcome"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sightings",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of a sighting lookup including the store round trip.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
}
