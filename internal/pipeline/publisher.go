package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
)

// Appender persists a payload as a new record.
type Appender interface {
	Append(ctx context.Context, payload any) (domain.Record, error)
}

// Mirror copies a stored record to a secondary destination.
type Mirror interface {
	MirrorRecord(ctx context.Context, rec domain.Record) error
}

// Status is the outcome of a publish attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Result describes a publish attempt. Message is the human-readable status
// line printed by the CLI and logs.
type Result struct {
	Status   Status      `json:"status"`
	RecordID string      `json:"record_id,omitempty"`
	Kind     domain.Kind `json:"error_kind,omitempty"`
	Message  string      `json:"message"`
}

func (r Result) String() string {
	return r.Message
}

// Publisher forwards data packages to the record store.
type Publisher struct {
	appender Appender
	mirror   Mirror
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithMirror copies every stored record to m after a successful append.
func WithMirror(m Mirror) PublisherOption {
	return func(p *Publisher) { p.mirror = m }
}

// WithPublisherMetrics counts mirror failures.
func WithPublisherMetrics(m *observability.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// NewPublisher creates a Publisher writing through appender.
func NewPublisher(appender Appender, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{appender: appender, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Act publishes pkg. A nil or empty package is skipped without touching the
// store. Store failures and panics come back as StatusFailure.
func (p *Publisher) Act(ctx context.Context, pkg *domain.DataPackage) (res Result) {
	if pkg.IsEmpty() {
		p.logger.Warn("received empty data package, skipping publish")
		return Result{Status: StatusSkipped, Message: "Skipped: received empty data."}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Status:  StatusFailure,
				Kind:    domain.KindUnknown,
				Message: fmt.Sprintf("RUNTIME ERROR: unexpected failure during publishing: %v", r),
			}
			p.logger.Error("publish panicked", "panic", r)
		}
	}()

	p.logger.Info("publishing data package",
		"location", pkg.MonitoringLocation,
		"fetch_time_utc", pkg.FetchTimeUTC,
	)

	rec, err := p.appender.Append(ctx, pkg)
	if err != nil {
		p.logger.Error("publish failed", "kind", domain.KindOf(err), "error", err)
		return Result{
			Status:  StatusFailure,
			Kind:    domain.KindOf(err),
			Message: fmt.Sprintf("FAILURE: could not save data package: %v", err),
		}
	}

	p.mirrorRecord(ctx, rec)

	p.logger.Info("data package published", "record_id", rec.ID)
	return Result{
		Status:   StatusSuccess,
		RecordID: rec.ID,
		Message:  fmt.Sprintf("SUCCESS: published data package as record %s.", rec.ID),
	}
}

func (p *Publisher) mirrorRecord(ctx context.Context, rec domain.Record) {
	if p.mirror == nil {
		return
	}
	if err := p.mirror.MirrorRecord(ctx, rec); err != nil {
		p.logger.Warn("mirror record failed", "record_id", rec.ID, "error", err)
		if p.metrics != nil {
			p.metrics.MirrorFailures.Inc()
		}
	}
}
