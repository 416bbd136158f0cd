package cityfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Client implements domain.IncidentSource against a municipal open data
// feed that returns incidents, roadworks and events as JSON.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a city feed client for feedURL.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchIncidents returns the feed's incident objects in feed order. The feed
// is city-wide, so location only appears in logs. A top-level object is
// treated as a single incident; null entries are dropped.
func (c *Client) FetchIncidents(ctx context.Context, location string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "create incidents request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching city incidents", "url", c.feedURL, "location", location)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "incidents request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "read incidents response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.KindTransport, "incidents request",
			fmt.Errorf("city data API error: status %d: %s", resp.StatusCode, body))
	}

	incidents, err := decodeIncidents(body)
	if err != nil {
		return nil, domain.NewError(domain.KindSerialization, "decode incidents response", err)
	}
	return incidents, nil
}

func decodeIncidents(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	switch trimmed[0] {
	case '{':
		var single map[string]any
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []map[string]any{single}, nil
	case '[':
		var list []map[string]any
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		incidents := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if item != nil {
				incidents = append(incidents, item)
			}
		}
		return incidents, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value starting with %q", trimmed[0])
	}
}
