// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/volunteerops/volmatch/internal/app"
	"github.com/volunteerops/volmatch/internal/domain/matching"
)

// MatchDependencies defines the interface for match operations.
type MatchDependencies interface {
	MatchVolunteer(ctx context.Context, req app.MatchRequest) ([]matching.Result, error)
	NotifyMatches(ctx context.Context, userID string, results []matching.Result) (int, error)
}

// MatchHandler handles match evaluation requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// matchRequest mirrors the request schema for POST /match.
type matchRequest struct {
	UserID         string  `json:"user_id"`
	MaxDistance    float64 `json:"max_distance,omitempty"`
	SkillWeight    float64 `json:"skill_weight,omitempty"`
	DistanceWeight float64 `json:"distance_weight,omitempty"`
	UrgencyWeight  float64 `json:"urgency_weight,omitempty"`
	Notify         bool    `json:"notify,omitempty"`
}

func (m matchRequest) validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return errors.New("missing user_id")
	}
	if m.MaxDistance < 0 {
		return errors.New("max_distance must not be negative")
	}
	return nil
}

type matchResponse struct {
	UserID      string            `json:"user_id"`
	Matches     []matching.Result `json:"matches"`
	Notified    int               `json:"notified,omitempty"`
	TotalEvents int               `json:"total_events"`
}

// HandleMatch handles POST /match requests.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid json body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	results, err := h.deps.MatchVolunteer(r.Context(), app.MatchRequest{
		UserID:         req.UserID,
		MaxDistance:    req.MaxDistance,
		SkillWeight:    req.SkillWeight,
		DistanceWeight: req.DistanceWeight,
		UrgencyWeight:  req.UrgencyWeight,
	})
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := matchResponse{
		UserID:      req.UserID,
		Matches:     results,
		TotalEvents: len(results),
	}
	if req.Notify {
		sent, err := h.deps.NotifyMatches(r.Context(), req.UserID, results)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		resp.Notified = sent
	}
	writeJSON(w, http.StatusOK, resp)
}
