// Package app provides the core business service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerops/volmatch/internal/adapters/mq/queue"
	"github.com/volunteerops/volmatch/internal/adapters/mq/worker"
	"github.com/volunteerops/volmatch/internal/adapters/repository"
	"github.com/volunteerops/volmatch/internal/domain/dedupe"
	"github.com/volunteerops/volmatch/internal/domain/matching"
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/internal/domain/ranking"
	"github.com/volunteerops/volmatch/internal/domain/types"
	"github.com/volunteerops/volmatch/pkg/logger"
	"github.com/volunteerops/volmatch/pkg/metrics"
)

// Default service configuration.
const (
	defaultWorkerCount     = 8
	defaultQueueSize       = 10000
	defaultDedupeSize      = 50000
	defaultMaxDistance     = 50.0 // miles
	notifyScoreThreshold   = 50.0
	unknownDistanceScoring = -1.0
)

// Backend is the slice of the volunteer REST API the service consumes.
type Backend interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
	Events(ctx context.Context) ([]model.Event, error)
	Notify(ctx context.Context, n model.Notification) error
	History(ctx context.Context, userID string) ([]model.ParticipationRecord, error)
	AllHistory(ctx context.Context) ([]model.ParticipationRecord, error)
}

// MatchRequest asks for ranked matches for one volunteer. Zero weights and
// distance fall back to the configured defaults.
type MatchRequest struct {
	UserID         string  `json:"user_id"`
	MaxDistance    float64 `json:"max_distance,omitempty"`
	SkillWeight    float64 `json:"skill_weight,omitempty"`
	DistanceWeight float64 `json:"distance_weight,omitempty"`
	UrgencyWeight  float64 `json:"urgency_weight,omitempty"`
}

// EventQuery selects and orders events for a listing.
type EventQuery struct {
	UserID        string // optional; enables distance annotation
	Criterion     ranking.Criterion
	Direction     ranking.Direction
	MaxDistance   float64
	RestrictToMax bool
}

// Service wires the matching engine, the ranking pipeline, the distance
// enrichment pipeline and the backend client together.
type Service struct {
	mu sync.RWMutex

	backend   Backend
	resolver  worker.Resolver
	cache     repository.Store
	deduper   dedupe.Deduper
	jobs      queue.Queue
	pool      *worker.Pool
	evaluator *matching.Evaluator

	workerCount int
	queueSize   int
	dedupeSize  int
	maxDistance float64
	started     bool
	log         logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the volunteer backend client. Required.
func WithBackend(b Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithDistanceResolver sets the distance service client. Required for
// enrichment; without it events simply stay unannotated.
func WithDistanceResolver(r worker.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithStore sets the distance cache backend. Defaults to in-memory.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.cache = st
		}
	}
}

// WithWorkerCount sets the number of enrichment workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the enrichment job queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the notification dedupe cache.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithDefaultMaxDistance sets the fallback match radius in miles.
func WithDefaultMaxDistance(miles float64) Option {
	return func(s *Service) {
		if miles > 0 {
			s.maxDistance = miles
		}
	}
}

// WithWeights sets the default composite score weights.
func WithWeights(skill, distanceW, urgency float64) Option {
	return func(s *Service) {
		s.evaluator = matching.NewEvaluator(matching.WithWeights(skill, distanceW, urgency))
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs an unstarted Service.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		maxDistance: defaultMaxDistance,
		evaluator:   matching.NewEvaluator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the cache, queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.backend == nil {
		return fmt.Errorf("start service: %w", ErrNoBackend)
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	if s.cache == nil {
		s.cache = repository.NewMemoryStore()
		s.log.Info(ctx, "using in-memory distance cache")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	if s.resolver != nil {
		s.pool = worker.NewPool(s.workerCount, s.jobs, s.resolver, s.cache)
		s.pool.Start(ctx)
	} else {
		s.log.Warn(ctx, "no distance resolver configured; events will not be distance-annotated")
	}

	s.started = true
	s.log.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Float64("default_max_distance", s.maxDistance),
	)
	return nil
}

// Stop drains the enrichment pipeline and releases the cache backend.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.jobs != nil {
		_ = s.jobs.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if closer, ok := s.cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.log.Info(context.Background(), "matching service stopped")
}

// ready reports whether the service has been started.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// evaluatorFor returns the default evaluator, or a per-request one when the
// request overrides any weight.
func (s *Service) evaluatorFor(req MatchRequest) *matching.Evaluator {
	if req.SkillWeight <= 0 && req.DistanceWeight <= 0 && req.UrgencyWeight <= 0 {
		return s.evaluator
	}
	return matching.NewEvaluator(matching.WithWeights(req.SkillWeight, req.DistanceWeight, req.UrgencyWeight))
}

// annotate attaches the cached distance to the event, or enqueues an
// enrichment job on a miss. Returns the distance in miles, or a negative
// value when unknown.
func (s *Service) annotate(ctx context.Context, userID, origin string, event *model.Event) float64 {
	destination := event.Venue()
	if origin == "" || destination == "" {
		return unknownDistanceScoring
	}

	info, ok, err := s.cache.Get(ctx, userID, event.ID)
	if err != nil {
		s.log.Warn(ctx, "distance cache read failed",
			logger.String("event_id", event.ID), logger.Error(err))
		return unknownDistanceScoring
	}
	if ok {
		event.Distance = &info
		return info.DistanceValue
	}

	if s.resolver != nil {
		s.jobs.Enqueue(ctx, queue.Job{
			UserID:      userID,
			EventID:     event.ID,
			Origin:      origin,
			Destination: destination,
		})
	}
	return unknownDistanceScoring
}

// MatchVolunteer evaluates every event for the volunteer and returns the
// results ordered by composite score, best first. Events with a known
// distance beyond the request's radius are excluded; events whose distance
// is still unknown stay in with a neutral distance contribution, and an
// enrichment job is queued so the next pass can do better.
func (s *Service) MatchVolunteer(ctx context.Context, req MatchRequest) ([]matching.Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	profile, err := s.backend.Profile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("match volunteer: %w", err)
	}
	events, err := s.backend.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("match volunteer: %w", err)
	}

	maxDist := req.MaxDistance
	if maxDist <= 0 {
		maxDist = s.maxDistance
	}
	eval := s.evaluatorFor(req)
	origin := profile.Address.String()

	results := make([]matching.Result, 0, len(events))
	for i := range events {
		dist := s.annotate(ctx, req.UserID, origin, &events[i])
		if dist >= 0 && dist > maxDist {
			continue
		}
		results = append(results, eval.EvaluateEvent(profile, events[i], dist))
		metrics.RecordMatchEvaluation()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	metrics.RecordMatchRequest()
	return results, nil
}

// MatchedEvents returns the events a volunteer is eligible for, in backend
// order. This is the simple skill-overlap path used by the events page.
func (s *Service) MatchedEvents(ctx context.Context, userID string) ([]model.Event, error) {
	profile, err := s.backend.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("matched events: %w", err)
	}
	events, err := s.backend.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("matched events: %w", err)
	}

	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if matching.Eligible(e.RequiredSkills, profile.Skills) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// RankEvents fetches events, annotates distances when a volunteer is
// identified, and runs the ranking pipeline.
func (s *Service) RankEvents(ctx context.Context, q EventQuery) ([]model.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	events, err := s.backend.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank events: %w", err)
	}

	if q.UserID != "" {
		profile, err := s.backend.Profile(ctx, q.UserID)
		if err != nil {
			return nil, fmt.Errorf("rank events: %w", err)
		}
		origin := profile.Address.String()
		for i := range events {
			s.annotate(ctx, q.UserID, origin, &events[i])
		}
	}

	start := time.Now()
	out := ranking.Rank(events, ranking.Options{
		Criterion:     q.Criterion,
		Direction:     q.Direction,
		MaxDistance:   q.MaxDistance,
		RestrictToMax: q.RestrictToMax,
	})
	metrics.ObserveRankingLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// NotifyMatches records a match notification for each strong result,
// skipping pairs the volunteer was already notified about. Returns how many
// notifications were sent.
func (s *Service) NotifyMatches(ctx context.Context, userID string, results []matching.Result) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	sent := 0
	for _, r := range results {
		if !r.Eligible || r.Score <= notifyScoreThreshold {
			continue
		}
		if s.deduper.SeenAndRecord(ctx, userID, r.EventID) {
			metrics.RecordNotificationDuplicate()
			continue
		}

		n := model.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			EventID:   r.EventID,
			Message:   fmt.Sprintf("New match: %s (%.1f%% match)", r.EventName, r.Score),
			Type:      "match",
			CreatedAt: time.Now().UTC(),
		}
		if err := s.backend.Notify(ctx, n); err != nil {
			// Allow a retry on the next pass.
			s.deduper.Unrecord(ctx, userID, r.EventID)
			s.log.Error(ctx, "notification delivery failed",
				logger.String("user_id", userID),
				logger.String("event_id", r.EventID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotificationSent()
		sent++
	}
	return sent, nil
}

// VolunteerHistory returns a volunteer's participation records joined with
// event details.
func (s *Service) VolunteerHistory(ctx context.Context, userID string) ([]types.HistoryEntry, error) {
	records, err := s.backend.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("volunteer history: %w", err)
	}
	events, err := s.backend.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("volunteer history: %w", err)
	}

	byID := make(map[string]model.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	entries := make([]types.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := types.HistoryEntry{
			RecordID: rec.ID,
			UserID:   rec.UserID,
			EventID:  rec.EventID,
			Status:   rec.Status,
		}
		if e, ok := byID[rec.EventID]; ok {
			entry.EventName = e.Name
			entry.Date = e.Date
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EventSummaryReport aggregates participation counts per event.
func (s *Service) EventSummaryReport(ctx context.Context) ([]types.EventSummary, error) {
	records, err := s.backend.AllHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("event summary: %w", err)
	}
	events, err := s.backend.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("event summary: %w", err)
	}

	counts := make(map[string]int, len(events))
	for _, rec := range records {
		counts[rec.EventID]++
	}

	summary := make([]types.EventSummary, 0, len(events))
	for _, e := range events {
		summary = append(summary, types.EventSummary{
			EventID:        e.ID,
			Name:           e.Name,
			Date:           e.Date,
			Location:       e.Venue(),
			VolunteerCount: counts[e.ID],
		})
	}
	return summary, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
	}
	if s.started {
		stats["queue_length"] = s.jobs.Len(ctx)
		stats["cache_entries"] = s.cache.Count(ctx)
		stats["notified_pairs"] = s.deduper.Size()
	}
	return stats
}
