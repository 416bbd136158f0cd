package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

const maxResponseBodySize = 1 << 20 // 1MB

// Client implements domain.WeatherSource using the OpenWeatherMap current
// weather endpoint. The decoded response is returned unmodified.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// FetchWeather returns the raw current weather object for location, in
// metric units.
func (c *Client) FetchWeather(ctx context.Context, location string) (map[string]any, error) {
	params := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "create weather request", err)
	}

	c.logger.Debug("fetching weather", "location", location)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "weather request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "read weather response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.KindTransport, "weather request",
			fmt.Errorf("openweathermap API error: status %d: %s", resp.StatusCode, body))
	}

	var weather map[string]any
	if err := json.Unmarshal(body, &weather); err != nil {
		return nil, domain.NewError(domain.KindSerialization, "decode weather response", err)
	}
	if weather == nil {
		weather = map[string]any{}
	}
	return weather, nil
}
