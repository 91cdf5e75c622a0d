package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/sightings-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// rootPath addresses the whole document in RedisJSON path syntax.
const rootPath = "$"

// Store persists sightings as RedisJSON documents. Every operation dials its
// own single-connection client from the shared options and closes it on
// return; nothing is pooled across calls.
type Store struct {
	opts   goredis.Options
	logger *slog.Logger
}

// NewStore parses a redis:// or rediss:// connection string.
func NewStore(url string, logger *slog.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 1
	opts.Protocol = 2
	return &Store{opts: *opts, logger: logger}, nil
}

func (s *Store) connect() *goredis.Client {
	opts := s.opts
	return goredis.NewClient(&opts)
}

// WriteAll stores each sighting under its key at the document root, replacing
// any existing document. It stops at the first failed write and returns the
// number of documents written before it; earlier writes are not rolled back.
func (s *Store) WriteAll(ctx context.Context, sightings []domain.Sighting) (int, error) {
	client := s.connect()
	defer client.Close()

	for i := range sightings {
		key := sightings[i].Key()
		doc, err := json.Marshal(sightings[i])
		if err != nil {
			return i, fmt.Errorf("encode %s: %w", key, err)
		}
		if err := client.JSONSet(ctx, key, rootPath, doc).Err(); err != nil {
			return i, fmt.Errorf("json.set %s: %w", key, err)
		}
	}
	return len(sightings), nil
}

// Get fetches the sighting stored for id. It returns domain.ErrNotFound when
// the key does not exist and domain.ErrMalformedDocument when the stored JSON
// does not decode.
func (s *Store) Get(ctx context.Context, id int64) (domain.Sighting, error) {
	key := domain.KeyForID(id)
	s.logger.Debug("fetching sighting", "key", key)

	client := s.connect()
	defer client.Close()

	// JSONCmd swallows the nil reply for an absent key and yields "".
	raw, err := client.JSONGet(ctx, key, rootPath).Result()
	if errors.Is(err, goredis.Nil) || (err == nil && raw == "") {
		return domain.Sighting{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	sighting, err := decodeDocument(raw)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("%s: %w", key, err)
	}
	return sighting, nil
}

// CheckReadiness pings the store over a fresh connection.
func (s *Store) CheckReadiness(ctx context.Context) error {
	client := s.connect()
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// decodeDocument unwraps a root-path query result. A "$" query returns a JSON
// array of matches, so a stored document comes back as a one-element array.
func decodeDocument(raw string) (domain.Sighting, error) {
	var matches []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &matches); err != nil {
		return domain.Sighting{}, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}

	switch len(matches) {
	case 0:
		return domain.Sighting{}, domain.ErrNotFound
	case 1:
	default:
		return domain.Sighting{}, fmt.Errorf("%w: expected one document, got %d", domain.ErrMalformedDocument, len(matches))
	}

	var sighting domain.Sighting
	if err := json.Unmarshal(matches[0], &sighting); err != nil {
		return domain.Sighting{}, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}
	return sighting, nil
}
