package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/sightings-service/internal/domain"
	"github.com/couchcryptid/sightings-service/internal/observability"
)

// Extractor reads every sighting from the source.
type Extractor interface {
	Load(ctx context.Context) ([]domain.Sighting, error)
}

// DocumentWriter stores sightings, returning how many were written before
// any failure.
type DocumentWriter interface {
	WriteAll(ctx context.Context, sightings []domain.Sighting) (int, error)
}

// Publisher announces stored sightings to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, sightings []domain.Sighting) error
}

// Pipeline runs the load-then-write sequence once at startup.
type Pipeline struct {
	extractor Extractor
	writer    DocumentWriter
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. Pass a nil publisher to skip event publishing.
func New(e Extractor, w DocumentWriter, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		writer:    w,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run loads every sighting, then writes each one to the store. A load failure
// returns before anything is written. A write failure stops the remaining
// writes; documents already written stay in place. Returns the number of
// documents written.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	sightings, err := p.extractor.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sightings: %w", err)
	}
	p.metrics.RecordsLoaded.Add(float64(len(sightings)))

	start := domain.Now()
	written, err := p.writer.WriteAll(ctx, sightings)
	p.metrics.DocumentsWritten.Add(float64(written))
	if err != nil {
		p.metrics.StoreWriteErrors.Inc()
		return written, fmt.Errorf("write sightings: %w", err)
	}
	elapsed := domain.Since(start)
	p.metrics.BulkWriteDuration.Observe(elapsed.Seconds())

	p.logger.Info("sightings loaded", "records", written, "duration", elapsed.String())

	if p.publisher == nil {
		return written, nil
	}
	if err := p.publisher.Publish(ctx, sightings); err != nil {
		return written, fmt.Errorf("publish sightings: %w", err)
	}
	p.metrics.EventsPublished.Add(float64(len(sightings)))
	return written, nil
}
