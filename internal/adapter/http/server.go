package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultRecordLimit = 10
	maxRecordLimit     = 100
)

// RecordReader returns the most recent stored records, newest first.
type RecordReader interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.RecentRecord, error)
}

// CycleTrigger runs one watch cycle on demand.
type CycleTrigger interface {
	RunCycle(ctx context.Context, location string) pipeline.CycleResult
}

// Option configures a Server.
type Option func(*Server)

// WithCycleTrigger enables POST /api/cycles, which runs one cycle for
// location and returns its result.
func WithCycleTrigger(trigger CycleTrigger, location string) Option {
	return func(s *Server) {
		s.trigger = trigger
		s.location = location
	}
}

// Server exposes the dashboard records API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	records    RecordReader
	trigger    CycleTrigger
	location   string
	cycleMu    sync.Mutex
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/records, /healthz, /readyz and
// /metrics routes. POST /api/cycles is added by WithCycleTrigger.
func NewServer(addr string, records RecordReader, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		records: records,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /api/records", s.handleRecords)
	if s.trigger != nil {
		mux.HandleFunc("POST /api/cycles", s.handleCycle)
	}
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

// handleRecords serves GET /api/records?limit=N. A corrupt or unreadable
// store yields an empty list with the error kind in the body, not a 5xx, so
// dashboards keep rendering.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecordLimit)
	}

	records, err := s.records.FetchRecent(r.Context(), limit)
	body := map[string]any{"records": records}
	if err != nil {
		s.logger.Warn("records request degraded", "error", err)
		body["error"] = string(domain.KindOf(err))
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

// handleCycle serves POST /api/cycles. Only one cycle runs at a time since
// the record store is a single file rewritten on every append.
func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	if !s.cycleMu.TryLock() {
		sharedobs.WriteJSON(w, http.StatusConflict, map[string]string{"error": "a cycle is already running"})
		return
	}
	defer s.cycleMu.Unlock()

	// The cycle outlives a disconnected client so a started append completes.
	result := s.trigger.RunCycle(context.WithoutCancel(r.Context()), s.location)

	status := http.StatusOK
	if result.Publish.Status == pipeline.StatusFailure {
		status = http.StatusInternalServerError
	}
	sharedobs.WriteJSON(w, status, result)
}
