package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neighborhood-watch/internal/adapter/cityfeed"
	kafkaadapter "github.com/couchcryptid/neighborhood-watch/internal/adapter/kafka"
	"github.com/couchcryptid/neighborhood-watch/internal/adapter/mock"
	"github.com/couchcryptid/neighborhood-watch/internal/adapter/openweathermap"
	"github.com/couchcryptid/neighborhood-watch/internal/adapter/ratelimit"
	"github.com/couchcryptid/neighborhood-watch/internal/config"
	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
	"github.com/couchcryptid/neighborhood-watch/internal/pipeline"
	"github.com/couchcryptid/neighborhood-watch/internal/store"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	runner *pipeline.Runner
	mirror *kafkaadapter.Writer
}

// newApp loads configuration and wires the store, sources and runner. The
// store is initialized here; failing to create it aborts the command.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st := store.New(cfg.StorePath, logger,
		store.WithMaxRecords(cfg.StoreMaxRecords),
		store.WithPublishedBy(cfg.PublishedBy),
		store.WithMetrics(metrics),
	)
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("initialize record store at %s: %w", cfg.StorePath, err)
	}

	weather, incidents, transit := buildSources(cfg, logger)
	sensorOpts := []pipeline.SensorOption{pipeline.WithSensorMetrics(metrics)}
	if transit != nil {
		sensorOpts = append(sensorOpts, pipeline.WithTransitSource(transit))
	}
	sensor := pipeline.NewSensor(weather, incidents, logger, sensorOpts...)

	a := &app{cfg: cfg, logger: logger, store: st}

	publisherOpts := []pipeline.PublisherOption{pipeline.WithPublisherMetrics(metrics)}
	if cfg.KafkaEnabled {
		a.mirror = kafkaadapter.NewWriter(cfg, logger)
		publisherOpts = append(publisherOpts, pipeline.WithMirror(a.mirror))
		logger.Info("kafka record mirror enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	publisher := pipeline.NewPublisher(st, logger, publisherOpts...)

	a.runner = pipeline.New(sensor, publisher, logger, metrics)
	return a, nil
}

// buildSources selects the mock generator or the live HTTP clients. Live
// clients are rate limited; transit updates are only available in mock mode.
func buildSources(cfg *config.Config, logger *slog.Logger) (domain.WeatherSource, domain.IncidentSource, domain.TransitSource) {
	if cfg.SourceMode == config.SourceModeMock {
		logger.Info("using mock data sources", "seed", cfg.MockSeed)
		gen := mock.NewGenerator(cfg.MockSeed)
		return gen, gen, gen
	}

	logger.Info("using live data sources",
		"weather_api", cfg.WeatherAPIURL,
		"city_data_api", cfg.CityDataAPIURL,
		"fetch_timeout", cfg.FetchTimeout,
		"rate_per_second", cfg.FetchRatePerSecond,
	)
	weather := openweathermap.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.FetchTimeout, logger)
	incidents := cityfeed.NewClient(cfg.CityDataAPIURL, cfg.FetchTimeout, logger)
	return ratelimit.NewWeatherSource(weather, cfg.FetchRatePerSecond, cfg.FetchBurst),
		ratelimit.NewIncidentSource(incidents, cfg.FetchRatePerSecond, cfg.FetchBurst),
		nil
}

func (a *app) close() {
	if a.mirror == nil {
		return
	}
	if err := a.mirror.Close(); err != nil {
		a.logger.Error("kafka writer close error", "error", err)
	}
}
