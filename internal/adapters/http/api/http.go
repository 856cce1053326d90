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
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchVolunteer(ctx context.Context, req app.MatchRequest) ([]matching.Result, error)
	MatchedEvents(ctx context.Context, userID string) ([]model.Event, error)
	RankEvents(ctx context.Context, q app.EventQuery) ([]model.Event, error)
	NotifyMatches(ctx context.Context, userID string, results []matching.Result) (int, error)
	VolunteerHistory(ctx context.Context, userID string) ([]types.HistoryEntry, error)
	EventSummaryReport(ctx context.Context) ([]types.EventSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchHandler   *MatchHandler
	eventsHandler  *EventsHandler
	matchedHandler *MatchedEventsHandler
	historyHandler *HistoryHandler
	reportHandler  *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		matchHandler:   NewMatchHandler(deps),
		eventsHandler:  NewEventsHandler(deps),
		matchedHandler: NewMatchedEventsHandler(deps),
		historyHandler: NewHistoryHandler(deps),
		reportHandler:  NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("/matched-events/", MetricsMiddleware(s.matchedHandler.HandleGetMatched, "matched_events"))
	mux.HandleFunc("/history/", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/reports/events", MetricsMiddleware(s.reportHandler.HandleEventSummary, "report_events"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// pathParam extracts the trailing path segment after prefix, rejecting
// nested paths.
func pathParam(r *http.Request, prefix string) (string, bool) {
	p := strings.TrimPrefix(r.URL.Path, prefix)
	if p == "" || strings.Contains(p, "/") {
		return "", false
	}
	return p, true
}
