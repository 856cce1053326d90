// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/volunteerops/volmatch/internal/app"
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/internal/domain/ranking"
)

// EventsDependencies defines the interface for the event listing.
type EventsDependencies interface {
	RankEvents(ctx context.Context, q app.EventQuery) ([]model.Event, error)
}

// EventsHandler handles ranked event listing requests.
type EventsHandler struct {
	deps EventsDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventsDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Total  int           `json:"total"`
}

// HandleGetEvents handles GET /events requests.
//
// Query parameters:
//
//	sort_by=distance|date|priority|name
//	order=asc|desc (legacy high-to-low/low-to-high accepted)
//	max_distance=<miles> (enables the distance filter)
//	user_id=<id> (enables distance annotation)
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := app.EventQuery{
		UserID:    r.URL.Query().Get("user_id"),
		Criterion: ranking.ParseCriterion(r.URL.Query().Get("sort_by")),
		Direction: ranking.ParseDirection(r.URL.Query().Get("order")),
	}
	if raw := r.URL.Query().Get("max_distance"); raw != "" {
		miles, err := strconv.ParseFloat(raw, 64)
		if err != nil || miles < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid max_distance"))
			return
		}
		q.MaxDistance = miles
		q.RestrictToMax = true
	}

	events, err := h.deps.RankEvents(r.Context(), q)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Total: len(events)})
}
