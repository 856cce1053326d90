// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/volunteerops/volmatch/internal/domain/types"
)

// HistoryDependencies defines the interface for participation lookups.
type HistoryDependencies interface {
	VolunteerHistory(ctx context.Context, userID string) ([]types.HistoryEntry, error)
}

// HistoryHandler handles volunteer participation history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type historyResponse struct {
	UserID  string               `json:"user_id"`
	Entries []types.HistoryEntry `json:"entries"`
	Total   int                  `json:"total"`
}

// HandleGetHistory handles GET /history/{user_id} requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := pathParam(r, "/history/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	entries, err := h.deps.VolunteerHistory(r.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{UserID: userID, Entries: entries, Total: len(entries)})
}
