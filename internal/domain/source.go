package domain

import "context"

// WeatherSource fetches the raw current-weather object for a location.
type WeatherSource interface {
	FetchWeather(ctx context.Context, location string) (map[string]any, error)
}

// IncidentSource fetches raw municipal incidents, roadworks and events.
type IncidentSource interface {
	FetchIncidents(ctx context.Context, location string) ([]map[string]any, error)
}

// TransitSource fetches raw public transport (OV) updates.
type TransitSource interface {
	FetchTransitUpdates(ctx context.Context, location string) ([]map[string]any, error)
}
