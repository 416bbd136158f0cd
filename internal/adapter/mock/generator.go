// Package mock generates synthetic weather, incident and transit data so the
// watch cycle can run without upstream API credentials.
package mock

import (
	"context"
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var conditions = []string{"Sunny", "Partly Cloudy", "Heavy Rain", "Foggy"}

// incidentCatalogue is the pool incidents are sampled from.
var incidentCatalogue = []map[string]any{
	{"type": "Roadwork", "location": "Main Street, near City Hall", "details": "Lane closure until 18:00.", "impact": "High"},
	{"type": "Event", "location": "Central Park", "details": "Annual kite festival, expect heavy foot traffic.", "impact": "Low"},
	{"type": "Minor Incident", "location": "Kerkstraat 45", "details": "Police investigating a minor fender-bender.", "impact": "Medium"},
	{"type": "OV Update", "location": "Tram Line 3", "details": "Minor delay due to technical issue.", "impact": "Low"},
}

var transitStatuses = []string{"ON_TIME", "DELAYED", "DIVERTED", "CANCELLED"}

// Generator implements domain.WeatherSource, domain.IncidentSource and
// domain.TransitSource with faker-backed random data.
type Generator struct {
	fake faker.Faker
}

// NewGenerator creates a Generator. A non-zero seed makes the numeric and
// categorical output reproducible; incident IDs are always unique.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		return &Generator{fake: faker.New()}
	}
	return &Generator{fake: faker.NewWithSeed(rand.NewSource(seed))}
}

// FetchWeather returns a weather object for location.
func (g *Generator) FetchWeather(ctx context.Context, location string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return map[string]any{
		"source":         "mock",
		"city":           location,
		"temperature_c":  g.fake.Float64(1, 5, 25),
		"condition":      g.pick(conditions),
		"wind_speed_kph": g.fake.IntBetween(5, 40),
	}, nil
}

// FetchIncidents returns one to three distinct incidents from the catalogue.
func (g *Generator) FetchIncidents(ctx context.Context, _ string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make([]int, len(incidentCatalogue))
	for i := range order {
		order[i] = i
	}
	n := g.fake.IntBetween(1, 3)
	incidents := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		j := g.fake.IntBetween(i, len(order)-1)
		order[i], order[j] = order[j], order[i]

		incident := map[string]any{"id": cuid.New()}
		for k, v := range incidentCatalogue[order[i]] {
			incident[k] = v
		}
		incidents = append(incidents, incident)
	}
	return incidents, nil
}

// FetchTransitUpdates returns zero to two tram line status updates.
func (g *Generator) FetchTransitUpdates(ctx context.Context, _ string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := g.fake.IntBetween(0, 2)
	updates := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		status := g.pick(transitStatuses)
		delay := 0
		if status == "DELAYED" {
			delay = g.fake.IntBetween(2, 15)
		}
		updates = append(updates, map[string]any{
			"id":            cuid.New(),
			"line":          "Tram " + g.fake.Numerify("#"),
			"status":        status,
			"delay_minutes": delay,
			"stop":          g.fake.Address().StreetName(),
		})
	}
	return updates, nil
}

func (g *Generator) pick(options []string) string {
	return options[g.fake.IntBetween(0, len(options)-1)]
}
