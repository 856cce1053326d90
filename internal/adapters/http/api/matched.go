// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

// MatchedEventsDependencies defines the interface for eligibility lookups.
type MatchedEventsDependencies interface {
	MatchedEvents(ctx context.Context, userID string) ([]model.Event, error)
}

// MatchedEventsHandler handles per-volunteer eligibility requests.
type MatchedEventsHandler struct {
	deps MatchedEventsDependencies
}

// NewMatchedEventsHandler creates a new matched-events handler.
func NewMatchedEventsHandler(deps MatchedEventsDependencies) *MatchedEventsHandler {
	return &MatchedEventsHandler{deps: deps}
}

// HandleGetMatched handles GET /matched-events/{user_id} requests.
func (h *MatchedEventsHandler) HandleGetMatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := pathParam(r, "/matched-events/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	events, err := h.deps.MatchedEvents(r.Context(), userID)
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
