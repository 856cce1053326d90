// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/volunteerops/volmatch/internal/domain/types"
)

// ReportDependencies defines the interface for reporting operations.
type ReportDependencies interface {
	EventSummaryReport(ctx context.Context) ([]types.EventSummary, error)
}

// ReportHandler handles aggregate reporting requests.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

type reportResponse struct {
	Events []types.EventSummary `json:"events"`
	Total  int                  `json:"total"`
}

// HandleEventSummary handles GET /reports/events requests.
func (h *ReportHandler) HandleEventSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	summary, err := h.deps.EventSummaryReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Events: summary, Total: len(summary)})
}
