package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sightings-service/internal/config"
	"github.com/couchcryptid/sightings-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes loaded sightings to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sighting topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every sighting and sends them in a single WriteMessages
// call. Messages are keyed by store key so repeated loads of one report land
// on the same partition.
func (w *Writer) Publish(ctx context.Context, sightings []domain.Sighting) error {
	if len(sightings) == 0 {
		return nil
	}
	loadedAt := domain.Now()
	msgs := make([]kafkago.Message, len(sightings))
	for i := range sightings {
		msg, err := serializeToMessage(sightings[i], loadedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d sightings: %w", len(msgs), err)
	}
	w.logger.Debug("sightings published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Sighting into a Kafka message.
func serializeToMessage(s domain.Sighting, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sighting: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "classification", Value: []byte(s.Classification)},
			{Key: "loaded_at", Value: []byte(loadedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
