package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
)

// Package sections, used as metric labels and log attributes.
const (
	sectionWeather   = "weather"
	sectionIncidents = "incidents"
	sectionTransit   = "ov_updates"
)

// Sensor collects upstream data into a DataPackage.
type Sensor struct {
	weather   domain.WeatherSource
	incidents domain.IncidentSource
	transit   domain.TransitSource
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// SensorOption configures a Sensor.
type SensorOption func(*Sensor)

// WithTransitSource fills raw_ov_updates from src. Without it the section
// stays empty.
func WithTransitSource(src domain.TransitSource) SensorOption {
	return func(s *Sensor) { s.transit = src }
}

// WithSensorMetrics records fetch durations and failures.
func WithSensorMetrics(m *observability.Metrics) SensorOption {
	return func(s *Sensor) { s.metrics = m }
}

// NewSensor creates a Sensor over the given sources. A nil source leaves its
// section empty.
func NewSensor(weather domain.WeatherSource, incidents domain.IncidentSource, logger *slog.Logger, opts ...SensorOption) *Sensor {
	s := &Sensor{
		weather:   weather,
		incidents: incidents,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Perceive fetches every section for location and always returns a package.
// Sections are fetched independently; a failed section holds an error marker
// and does not stop the others.
func (s *Sensor) Perceive(ctx context.Context, location string) domain.DataPackage {
	pkg := domain.NewDataPackage(location)
	s.logger.Info("perception started", "location", location)

	if s.weather != nil {
		weather, err := fetchSection(s, sectionWeather, func() (map[string]any, error) {
			return s.weather.FetchWeather(ctx, location)
		})
		switch {
		case err != nil:
			pkg.RawWeather = domain.ErrorSection(err)
		case weather != nil:
			pkg.RawWeather = weather
			s.warnOnInlineError(sectionWeather, weather)
		}
	}

	if s.incidents != nil {
		incidents, err := fetchSection(s, sectionIncidents, func() ([]map[string]any, error) {
			return s.incidents.FetchIncidents(ctx, location)
		})
		switch {
		case err != nil:
			pkg.RawIncidents = domain.ErrorList(err)
		case incidents != nil:
			pkg.RawIncidents = incidents
		}
	}

	if s.transit != nil {
		updates, err := fetchSection(s, sectionTransit, func() ([]map[string]any, error) {
			return s.transit.FetchTransitUpdates(ctx, location)
		})
		switch {
		case err != nil:
			pkg.RawOVUpdates = domain.ErrorList(err)
		case updates != nil:
			pkg.RawOVUpdates = updates
		}
	}

	if !pkg.HasData() {
		s.logger.Warn("no weather or incident data retrieved", "location", location)
	}

	s.logger.Info("perception complete",
		"location", location,
		"weather_fields", len(pkg.RawWeather),
		"incidents", len(pkg.RawIncidents),
		"ov_updates", len(pkg.RawOVUpdates),
	)
	return pkg
}

// fetchSection runs fetch, converting a panic into an error, and records
// duration and failure metrics for section.
func fetchSection[T any](s *Sensor, section string, fetch func() (T, error)) (out T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s source panicked: %v", section, r)
		}
		if s.metrics != nil {
			s.metrics.FetchDuration.WithLabelValues(section).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			s.logger.Error("fetch failed", "section", section, "kind", domain.KindOf(err), "error", err)
			if s.metrics != nil {
				s.metrics.FetchErrors.WithLabelValues(section).Inc()
			}
		}
	}()
	return fetch()
}

// warnOnInlineError flags sources that report failure as an {"error": ...}
// object instead of returning an error. The object is kept as-is.
func (s *Sensor) warnOnInlineError(section string, data map[string]any) {
	msg, ok := data["error"]
	if !ok {
		return
	}
	s.logger.Warn("source reported an error", "section", section, "error", msg)
	if s.metrics != nil {
		s.metrics.FetchErrors.WithLabelValues(section).Inc()
	}
}
