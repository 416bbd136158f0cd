// Package ratelimit wraps upstream sources in token-bucket rate limiters so a
// tight invocation loop cannot exceed a provider's free-tier quota.
package ratelimit

import (
	"context"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"golang.org/x/time/rate"
)

// WeatherSource wraps a domain.WeatherSource with rate limiting.
type WeatherSource struct {
	source  domain.WeatherSource
	limiter *rate.Limiter
}

// NewWeatherSource allows rps requests per second (fractional values allowed)
// with bursts of up to burst requests.
func NewWeatherSource(source domain.WeatherSource, rps float64, burst int) *WeatherSource {
	return &WeatherSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchWeather waits for limiter permission, then forwards to the wrapped source.
func (w *WeatherSource) FetchWeather(ctx context.Context, location string) (map[string]any, error) {
	if err := wait(ctx, w.limiter); err != nil {
		return nil, err
	}
	return w.source.FetchWeather(ctx, location)
}

// IncidentSource wraps a domain.IncidentSource with rate limiting.
type IncidentSource struct {
	source  domain.IncidentSource
	limiter *rate.Limiter
}

// NewIncidentSource allows rps requests per second with bursts of up to burst.
func NewIncidentSource(source domain.IncidentSource, rps float64, burst int) *IncidentSource {
	return &IncidentSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchIncidents waits for limiter permission, then forwards to the wrapped source.
func (s *IncidentSource) FetchIncidents(ctx context.Context, location string) ([]map[string]any, error) {
	if err := wait(ctx, s.limiter); err != nil {
		return nil, err
	}
	return s.source.FetchIncidents(ctx, location)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return domain.NewError(domain.KindTransport, "rate limit wait", err)
	}
	return nil
}
