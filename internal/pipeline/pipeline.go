package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
	"github.com/google/uuid"
)

// Perceiver produces one data package per call.
type Perceiver interface {
	Perceive(ctx context.Context, location string) domain.DataPackage
}

// Actor publishes a data package.
type Actor interface {
	Act(ctx context.Context, pkg *domain.DataPackage) Result
}

// CycleResult summarizes one perceive-then-publish cycle.
type CycleResult struct {
	CycleID  string `json:"cycle_id"`
	Location string `json:"location"`
	Aborted  bool   `json:"aborted"`
	Publish  Result `json:"publish"`
}

// Runner executes watch cycles. It holds no state between cycles.
type Runner struct {
	sensor    Perceiver
	publisher Actor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Runner with the given stages and observability.
func New(sensor Perceiver, publisher Actor, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		sensor:    sensor,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// RunCycle runs exactly one cycle for location: perceive, then publish unless
// the package came back empty.
func (r *Runner) RunCycle(ctx context.Context, location string) CycleResult {
	result := CycleResult{CycleID: uuid.NewString(), Location: location}
	logger := r.logger.With("cycle_id", result.CycleID)
	start := time.Now()

	logger.Info("cycle started", "location", location)

	pkg := r.sensor.Perceive(ctx, location)
	if pkg.IsEmpty() {
		logger.Warn("sensor returned an empty data package, aborting cycle")
		result.Aborted = true
		r.observe("aborted", start)
		return result
	}

	result.Publish = r.publisher.Act(ctx, &pkg)
	logger.Info("cycle completed",
		"status", result.Publish.Status,
		"record_id", result.Publish.RecordID,
		"publication", result.Publish.String(),
		"duration", time.Since(start),
	)
	r.observe(string(result.Publish.Status), start)
	return result
}

func (r *Runner) observe(outcome string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	r.metrics.CycleDuration.Observe(time.Since(start).Seconds())
}
