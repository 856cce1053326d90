// Package types contains common read shapes shared by the service and the
// HTTP API.
package types

import "time"

// EventSummary aggregates participation counts for one event, as served by
// the reporting endpoint.
type EventSummary struct {
	EventID        string    `json:"event_id"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location"`
	VolunteerCount int       `json:"volunteer_count"`
}

// HistoryEntry is one row of a volunteer participation report: the raw
// record joined with the event it refers to.
type HistoryEntry struct {
	RecordID  string    `json:"record_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	EventName string    `json:"event_name"`
	Date      time.Time `json:"event_date"`
	Status    string    `json:"status"`
}
