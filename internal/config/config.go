package config

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	goredis "github.com/redis/go-redis/v9"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CSVPath         string
	RedisURL        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing is enabled when at least one broker is configured.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether loaded sightings should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CSVPath:         sharedcfg.EnvOrDefault("CSV_PATH", "data/bfro_reports_geocoded.csv"),
		RedisURL:        sharedcfg.EnvOrDefault("REDIS_URL", "redis://127.0.0.1:6379/0"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    parseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "sightings"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that may also be overridden by command-line flags.
func (c *Config) Validate() error {
	if c.CSVPath == "" {
		return errors.New("CSV_PATH is required")
	}
	if _, err := goredis.ParseURL(c.RedisURL); err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}
