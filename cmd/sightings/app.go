package main

import (
	"log/slog"

	"github.com/couchcryptid/sightings-service/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/sightings-service/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/sightings-service/internal/adapter/redis"
	"github.com/couchcryptid/sightings-service/internal/config"
	"github.com/couchcryptid/sightings-service/internal/observability"
	"github.com/couchcryptid/sightings-service/internal/pipeline"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	store     *redisadapter.Store
	publisher *kafkaadapter.Writer
	pipeline  *pipeline.Pipeline
}

func newApp(o *overrides) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	store, err := redisadapter.NewStore(cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics, store: store}

	// A nil *Writer must not reach the pipeline as a non-nil interface.
	var publisher pipeline.Publisher
	if cfg.KafkaEnabled() {
		a.publisher = kafkaadapter.NewWriter(cfg, logger)
		publisher = a.publisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	loader := csvfile.NewLoader(cfg.CSVPath, logger)
	a.pipeline = pipeline.New(loader, store, publisher, logger, metrics)
	return a, nil
}

func (o *overrides) apply(cfg *config.Config) {
	if o.csvPath != "" {
		cfg.CSVPath = o.csvPath
	}
	if o.redisURL != "" {
		cfg.RedisURL = o.redisURL
	}
	if o.httpAddr != "" {
		cfg.HTTPAddr = o.httpAddr
	}
}

func (a *app) close() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("kafka writer close error", "error", err)
	}
}
