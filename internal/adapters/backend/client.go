// Package backend is a typed client for the volunteer-management REST API.
//
// All durable state (profiles, events, notifications, history) lives
// behind this API; the matching service only ever reads and appends.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

const (
	defaultTimeout = 15 * time.Second
	contentType    = "application/json"
)

// Accepted event_date layouts, tried in order. Anything else decodes to the
// zero time, which the ranking pipeline sorts as "oldest".
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Client talks to the volunteer backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a backend client. token is passed through as a bearer token;
// this service performs no authentication of its own.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireEvent is the backend's event JSON, with the date still a string.
type wireEvent struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Location       string        `json:"location"`
	Address        model.Address `json:"address"`
	EventDate      string        `json:"event_date"`
	Urgency        string        `json:"urgency"`
	RequiredSkills []string      `json:"required_skills"`
}

// toModel converts a wire event, parsing the date defensively.
func (w wireEvent) toModel() model.Event {
	return model.Event{
		ID:             w.ID,
		Name:           w.Name,
		Description:    w.Description,
		Location:       w.Location,
		Address:        w.Address,
		Date:           parseDate(w.EventDate),
		Urgency:        model.ParseUrgency(w.Urgency),
		RequiredSkills: w.RequiredSkills,
	}
}

// parseDate tries the accepted layouts and falls back to the zero time.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Events lists all events, sorted by date on the backend side.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var wire []wireEvent
	if err := c.getJSON(ctx, "/events", &wire); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]model.Event, len(wire))
	for i, w := range wire {
		events[i] = w.toModel()
	}
	return events, nil
}

// Event fetches a single event by id.
func (c *Client) Event(ctx context.Context, id string) (model.Event, error) {
	var wire wireEvent
	if err := c.getJSON(ctx, "/events/"+id, &wire); err != nil {
		return model.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return wire.toModel(), nil
}

// Profile fetches a volunteer profile by user id.
func (c *Client) Profile(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	if err := c.getJSON(ctx, "/profile/"+userID, &p); err != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return p, nil
}

// Notify records a notification for a volunteer.
func (c *Client) Notify(ctx context.Context, n model.Notification) error {
	if err := c.postJSON(ctx, "/notifications", n, nil); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// History lists a volunteer's participation records.
func (c *Client) History(ctx context.Context, userID string) ([]model.ParticipationRecord, error) {
	var out struct {
		History []model.ParticipationRecord `json:"history"`
	}
	if err := c.getJSON(ctx, "/history/"+userID, &out); err != nil {
		return nil, fmt.Errorf("get history %s: %w", userID, err)
	}
	return out.History, nil
}

// AllHistory lists every participation record; used by reporting.
func (c *Client) AllHistory(ctx context.Context) ([]model.ParticipationRecord, error) {
	var out struct {
		History []model.ParticipationRecord `json:"history"`
	}
	if err := c.getJSON(ctx, "/history", &out); err != nil {
		return nil, fmt.Errorf("get all history: %w", err)
	}
	return out.History, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, target)
}

func (c *Client) postJSON(ctx context.Context, path string, body, target any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
