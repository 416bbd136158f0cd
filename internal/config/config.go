package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Source modes for the sensor.
const (
	SourceModeLive = "live"
	SourceModeMock = "mock"
)

// Config holds all watch settings, populated from environment variables.
type Config struct {
	MonitorLocation string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Record store.
	StorePath       string
	StoreMaxRecords int
	PublishedBy     string

	// Upstream sources.
	SourceMode         string
	WeatherAPIKey      string
	WeatherAPIURL      string
	CityDataAPIURL     string
	FetchTimeout       time.Duration
	FetchRatePerSecond float64
	FetchBurst         int
	MockSeed           int64

	// Optional Kafka mirror of stored records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "10s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	maxRecords, err := parsePositiveInt("STORE_MAX_RECORDS", 100)
	if err != nil {
		return nil, err
	}

	burst, err := parsePositiveInt("FETCH_BURST", 1)
	if err != nil {
		return nil, err
	}

	rate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FETCH_RATE_PER_SECOND", "1"), 64)
	if err != nil || rate <= 0 {
		return nil, errors.New("invalid FETCH_RATE_PER_SECOND")
	}

	seed, err := strconv.ParseInt(sharedcfg.EnvOrDefault("MOCK_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid MOCK_SEED")
	}

	weatherKey := os.Getenv("WEATHER_API_KEY")
	defaultMode := SourceModeLive
	if weatherKey == "" {
		defaultMode = SourceModeMock
	}

	cfg := &Config{
		MonitorLocation: sharedcfg.EnvOrDefault("MONITOR_LOCATION", "Rotterdam, Netherlands"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StorePath:       sharedcfg.EnvOrDefault("STORE_PATH", "data/alerts.json"),
		StoreMaxRecords: maxRecords,
		PublishedBy:     sharedcfg.EnvOrDefault("PUBLISHED_BY", "publisher"),

		SourceMode:         sharedcfg.EnvOrDefault("SOURCE_MODE", defaultMode),
		WeatherAPIKey:      weatherKey,
		WeatherAPIURL:      sharedcfg.EnvOrDefault("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5"),
		CityDataAPIURL:     sharedcfg.EnvOrDefault("CITY_DATA_API_URL", "https://example-city-opendata.com/api/v1/incidents"),
		FetchTimeout:       fetchTimeout,
		FetchRatePerSecond: rate,
		FetchBurst:         burst,
		MockSeed:           seed,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "neighborhood-watch-records"),
	}

	if cfg.StorePath == "" {
		return nil, errors.New("STORE_PATH is required")
	}
	if cfg.SourceMode != SourceModeLive && cfg.SourceMode != SourceModeMock {
		return nil, fmt.Errorf("invalid SOURCE_MODE %q: want %q or %q", cfg.SourceMode, SourceModeLive, SourceModeMock)
	}
	if cfg.SourceMode == SourceModeLive && cfg.WeatherAPIKey == "" {
		return nil, errors.New("SOURCE_MODE is live but WEATHER_API_KEY is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
