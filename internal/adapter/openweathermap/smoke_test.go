//go:build openweathermap

package openweathermap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real OpenWeatherMap API and require WEATHER_API_KEY.
// Run with: go test -tags=openweathermap ./internal/adapter/openweathermap/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("WEATHER_API_KEY")
	if key == "" {
		t.Fatal("WEATHER_API_KEY must be set to run smoke tests")
	}
	return NewClient(key, DefaultBaseURL, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_FetchWeather(t *testing.T) {
	c := smokeClient(t)

	weather, err := c.FetchWeather(context.Background(), "Rotterdam, NL")
	require.NoError(t, err)

	assert.Equal(t, "Rotterdam", weather["name"])
	assert.Contains(t, weather, "main")
	assert.Contains(t, weather, "weather")
}

func TestSmoke_FetchWeather_UnknownCity(t *testing.T) {
	c := smokeClient(t)

	_, err := c.FetchWeather(context.Background(), "XYZNONEXISTENT99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
