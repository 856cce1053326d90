package repository

import (
	"context"
	"sync"
	"time"

	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/pkg/metrics"
)

// entry is one cached distance plus its computation time.
type entry struct {
	info       model.DistanceInfo
	computedAt time.Time
}

// MemoryStore is an in-memory Store with TTL expiry. Expired entries are
// dropped lazily on read and by an optional background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock substitutes the time source; used by tests to age entries.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory distance cache.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached distance, treating expired entries as misses and
// deleting them on the way out.
func (s *MemoryStore) Get(_ context.Context, userID, eventID string) (model.DistanceInfo, bool, error) {
	k := cacheKey(userID, eventID)

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordCacheMiss()
		return model.DistanceInfo{}, false, nil
	}
	if s.now().Sub(e.computedAt) > s.ttl {
		s.mu.Lock()
		// Re-check under the write lock; Put may have refreshed it.
		if cur, still := s.entries[k]; still && s.now().Sub(cur.computedAt) > s.ttl {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		metrics.RecordCacheExpiry()
		metrics.RecordCacheMiss()
		return model.DistanceInfo{}, false, nil
	}

	metrics.RecordCacheHit()
	info := e.info
	info.Cached = true
	return info, true, nil
}

// Put stores a distance result, resetting its TTL.
func (s *MemoryStore) Put(_ context.Context, userID, eventID string, info model.DistanceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cacheKey(userID, eventID)] = entry{info: info, computedAt: s.now()}
	metrics.UpdateCacheSize(len(s.entries))
	return nil
}

// Delete drops a cached entry.
func (s *MemoryStore) Delete(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cacheKey(userID, eventID))
	metrics.UpdateCacheSize(len(s.entries))
	return nil
}

// Count returns the number of entries, including not-yet-swept expired ones.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes all expired entries and returns how many were dropped.
// Callers run it on a timer; Get also expires lazily, so sweeping is an
// optimization rather than a correctness requirement.
func (s *MemoryStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	cutoff := s.now()
	for k, e := range s.entries {
		if cutoff.Sub(e.computedAt) > s.ttl {
			delete(s.entries, k)
			dropped++
		}
	}
	metrics.UpdateCacheSize(len(s.entries))
	return dropped
}
