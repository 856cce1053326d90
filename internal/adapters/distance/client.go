// Package distance is a thin client for a distance-matrix web service.
//
// The wire shape follows the Google Distance Matrix API: one origin, one
// destination, a status per element, and distance/duration carrying both a
// display text and a numeric value.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultTimeout = 10 * time.Second

	statusOK     = "OK"
	metersPerMi  = 1609.344
	unitsSetting = "imperial"
)

// Client calls the distance-matrix service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint; tests use this to
// target an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a distance client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// matrixResponse mirrors the distance-matrix JSON envelope.
type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Text  string  `json:"text"`
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Text  string  `json:"text"`
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Between computes the driving distance from origin to destination.
// A non-OK element status (unroutable pair, unknown address) comes back as
// ErrNoRoute so callers can treat it as "distance unknown" rather than a
// transport failure.
func (c *Client) Between(ctx context.Context, origin, destination string) (model.DistanceInfo, error) {
	if origin == "" || destination == "" {
		return model.DistanceInfo{}, ErrNoRoute
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("units", unitsSetting)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return model.DistanceInfo{}, fmt.Errorf("build distance request: %w", err)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.DistanceInfo{}, fmt.Errorf("distance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.DistanceInfo{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.DistanceInfo{}, fmt.Errorf("decode distance response: %w", err)
	}

	if body.Status != statusOK || len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return model.DistanceInfo{}, ErrNoRoute
	}
	element := body.Rows[0].Elements[0]
	if element.Status != statusOK {
		return model.DistanceInfo{}, ErrNoRoute
	}

	return model.DistanceInfo{
		DistanceText:  element.Distance.Text,
		DistanceValue: element.Distance.Value / metersPerMi,
		DurationText:  element.Duration.Text,
		DurationValue: element.Duration.Value,
	}, nil
}
