package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/sightings-service/internal/adapter/http"
	"github.com/couchcryptid/sightings-service/internal/domain"
	"github.com/couchcryptid/sightings-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

type mockFinder struct {
	sightings map[int64]domain.Sighting
	err       error
	requested []int64
}

func (m *mockFinder) Get(_ context.Context, id int64) (domain.Sighting, error) {
	m.requested = append(m.requested, id)
	if m.err != nil {
		return domain.Sighting{}, m.err
	}
	s, ok := m.sightings[id]
	if !ok {
		return domain.Sighting{}, domain.ErrNotFound
	}
	return s, nil
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func klamath() domain.Sighting {
	title := "Report 1: Campers hear vocalizations"
	return domain.Sighting{
		Title:          &title,
		County:         "Klamath",
		State:          "OR",
		Number:         1,
		Classification: "Class A",
	}
}

func newTestServer(finder *mockFinder, readyErr error) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	srv := httpadapter.NewServer(":0", finder, &mockReadiness{err: readyErr}, metrics, discardLogger())
	return srv, metrics
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// --- tests ---

func TestIndexReturnsGreeting(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, world!", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestUnknownPathReturns404(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/bigfoot")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSighting(t *testing.T) {
	finder := &mockFinder{sightings: map[int64]domain.Sighting{1: klamath()}}
	srv, metrics := newTestServer(finder, nil)

	rec := get(srv, "/sightings/1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 1.0, body["number"], 0)
	assert.Equal(t, "Klamath", body["county"])
	assert.Equal(t, "Class A", body["classification"])
	assert.Contains(t, body, "observed")
	assert.Nil(t, body["observed"])

	var decoded domain.Sighting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, klamath(), decoded)

	assert.Equal(t, []int64{1}, finder.requested)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues(observability.OutcomeFound)), 0)
}

func TestGetSighting_NegativeID(t *testing.T) {
	finder := &mockFinder{}
	srv, _ := newTestServer(finder, nil)

	rec := get(srv, "/sightings/-12")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []int64{-12}, finder.requested)
}

func TestGetSighting_NotFound(t *testing.T) {
	srv, metrics := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/sightings/404")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "sighting not found", errorBody(t, rec))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues(observability.OutcomeNotFound)), 0)
}

func TestGetSighting_InvalidID(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"word", "/sightings/abc"},
		{"float", "/sightings/1.5"},
		{"overflow", "/sightings/9223372036854775808"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockFinder{}
			srv, metrics := newTestServer(finder, nil)

			rec := get(srv, tt.path)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorBody(t, rec))
			assert.Empty(t, finder.requested, "store must not be queried")
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues(observability.OutcomeBadID)), 0)
		})
	}
}

func TestGetSighting_MalformedDocument(t *testing.T) {
	finder := &mockFinder{err: fmt.Errorf("sighting:7: %w: unexpected end of JSON input", domain.ErrMalformedDocument)}
	srv, _ := newTestServer(finder, nil)

	rec := get(srv, "/sightings/7")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.ErrMalformedDocument.Error(), errorBody(t, rec))
}

func TestGetSighting_StoreUnavailable(t *testing.T) {
	finder := &mockFinder{err: errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")}
	srv, metrics := newTestServer(finder, nil)

	rec := get(srv, "/sightings/7")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "127.0.0.1", "transport details stay in the logs")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues(observability.OutcomeError)), 0)
}

// slowFinder advances the clock on every lookup.
type slowFinder struct {
	clock *clockwork.FakeClock
	delay time.Duration
}

func (f *slowFinder) Get(_ context.Context, _ int64) (domain.Sighting, error) {
	f.clock.Advance(f.delay)
	return klamath(), nil
}

func TestGetSighting_RecordsDuration(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	finder := &slowFinder{clock: fakeClock, delay: 40 * time.Millisecond}
	srv := httpadapter.NewServer(":0", finder, &mockReadiness{}, metrics, discardLogger())

	rec := get(srv, "/sightings/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var m dto.Metric
	require.NoError(t, metrics.LookupDuration.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.04, m.GetHistogram().GetSampleSum(), 1e-9)
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenStoreDown(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, errors.New("redis ping: connection refused"))

	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStartStopsOnShutdown(t *testing.T) {
	srv, _ := newTestServer(&mockFinder{}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-ctx.Done():
		t.Fatal("server did not stop after shutdown")
	}
}
