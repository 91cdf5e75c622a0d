package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/sightings-service/internal/domain"
	"github.com/couchcryptid/sightings-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const greeting = "Hello, world!"

// SightingFinder fetches a single sighting by identifier.
type SightingFinder interface {
	Get(ctx context.Context, id int64) (domain.Sighting, error)
}

// Server exposes the sighting lookup routes plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	finder     SightingFinder
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /sightings/{id}, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, finder SightingFinder, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		finder:  finder,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("GET /sightings/{id}", s.handleSighting)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(greeting))
}

func (s *Server) handleSighting(w http.ResponseWriter, r *http.Request) {
	start := domain.Now()
	defer func() { s.metrics.LookupDuration.Observe(domain.Since(start).Seconds()) }()

	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeBadID).Inc()
		writeError(w, http.StatusBadRequest, "id must be a 64-bit integer")
		return
	}

	sighting, err := s.finder.Get(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeNotFound).Inc()
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	case errors.Is(err, domain.ErrMalformedDocument):
		s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeMalformed).Inc()
		s.logger.Error("stored sighting is malformed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, domain.ErrMalformedDocument.Error())
		return
	default:
		s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeError).Inc()
		s.logger.Error("sighting lookup failed", "id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "sighting store unavailable")
		return
	}

	body, err := json.Marshal(sighting)
	if err != nil {
		s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeError).Inc()
		s.logger.Error("encode sighting", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "encode sighting")
		return
	}

	s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeFound).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort error response
}
