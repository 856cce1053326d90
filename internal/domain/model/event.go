// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Urgency is an event's ordinal importance level.
type Urgency string

// Known urgency levels, lowest to highest.
const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// Urgency ranks used for ordering. Unrecognized values rank below Low.
const (
	rankUnknown = 0
	rankLow     = 1
	rankMedium  = 2
	rankHigh    = 3
)

// ParseUrgency maps a free-form label onto a known urgency level.
// Unrecognized input comes back as-is so the original label survives
// round-trips; Rank treats it as below Low.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow
	case "medium":
		return UrgencyMedium
	case "high":
		return UrgencyHigh
	}
	return Urgency(s)
}

// Rank returns the ordering rank for the urgency level.
func (u Urgency) Rank() int {
	switch strings.ToLower(string(u)) {
	case "high":
		return rankHigh
	case "medium":
		return rankMedium
	case "low":
		return rankLow
	}
	return rankUnknown
}

// Address is a structured postal address. Line2 and Zip are optional.
type Address struct {
	Line1 string `json:"address1"`
	Line2 string `json:"address2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip_code,omitempty"`
}

// String assembles the full address for distance lookups. It returns ""
// when the minimum fields (line1, city, state) are missing, so callers can
// skip enrichment for incomplete profiles.
func (a Address) String() string {
	line1 := strings.TrimSpace(a.Line1)
	city := strings.TrimSpace(a.City)
	state := strings.TrimSpace(a.State)
	if line1 == "" || city == "" || state == "" {
		return ""
	}

	parts := []string{line1}
	if line2 := strings.TrimSpace(a.Line2); line2 != "" {
		parts = append(parts, line2)
	}
	parts = append(parts, city+", "+state)
	if zip := strings.TrimSpace(a.Zip); zip != "" {
		parts = append(parts, zip)
	}
	return strings.Join(parts, ", ")
}

// DistanceInfo carries the distance/duration data attached to an event by
// the external distance service. Numeric comparisons always use the value
// fields; the text fields are display-only.
type DistanceInfo struct {
	DistanceText  string  `json:"distance_text"`
	DistanceValue float64 `json:"distance_value"` // miles
	DurationText  string  `json:"duration_text"`
	DurationValue float64 `json:"duration_value"` // seconds
	Cached        bool    `json:"cached"`
}

// Event represents a volunteering event fetched from the backend.
// Distance is nil until the enrichment pipeline has produced a result
// for the current volunteer.
type Event struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Location       string        `json:"location"` // legacy single-string location
	Address        Address       `json:"address"`
	Date           time.Time     `json:"event_date"`
	Urgency        Urgency       `json:"urgency"`
	RequiredSkills []string      `json:"required_skills"`
	Distance       *DistanceInfo `json:"distance,omitempty"`
}

// Venue returns the best available location string for an event,
// preferring the structured address over the legacy field.
func (e Event) Venue() string {
	if addr := e.Address.String(); addr != "" {
		return addr
	}
	return strings.TrimSpace(e.Location)
}

// Profile is a volunteer profile as served by the backend.
type Profile struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Address      Address   `json:"address"`
	Skills       []string  `json:"skills"`
	Preferences  string    `json:"preferences,omitempty"`
	Availability time.Time `json:"availability,omitempty"`
	Role         string    `json:"role"`
}

// Notification is a per-volunteer message recorded in the backend.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id,omitempty"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // match, reminder, update, general
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Participation statuses tracked in volunteer history.
const (
	ParticipationSignedUp = "Signed Up"
	ParticipationAttended = "Attended"
	ParticipationMissed   = "Missed"
)

// ParticipationRecord is one row of a volunteer's event history.
type ParticipationRecord struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}
