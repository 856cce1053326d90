// Package dedupe tracks which (volunteer, event) pairs have already been
// notified, so repeated matching passes never produce duplicate match
// notifications.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records notified volunteer/event pairs for at-most-once delivery.
type Deduper interface {
	// SeenAndRecord atomically checks whether the pair was already notified
	// and records it if not. Returns true if it was already seen.
	SeenAndRecord(ctx context.Context, userID, eventID string) bool

	// Unrecord removes a pair, allowing a retry after a failed delivery.
	Unrecord(ctx context.Context, userID, eventID string)

	Size() int
}

const defaultMaxSize = 50000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of tracked pairs. Zero or negative means
// unbounded.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}

// inMemoryDeduper implements Deduper with a map plus FIFO eviction order.
// Eviction drops the oldest pair first: a volunteer whose notification was
// evicted may be re-notified about a long-standing match, which is the
// acceptable failure mode here.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order for FIFO eviction
	maxSize int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// key joins the pair. The separator cannot appear in backend IDs.
func key(userID, eventID string) string {
	return userID + "|" + eventID
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, userID, eventID string) bool {
	k := key(userID, eventID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[k] = struct{}{}
	d.order = append(d.order, k)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, userID, eventID string) {
	k := key(userID, eventID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; !ok {
		return
	}
	delete(d.seen, k)
	for i, existing := range d.order {
		if existing == k {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// evictOldest removes the first still-live key in insertion order.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		k := d.order[0]
		d.order = d.order[1:]
		if _, ok := d.seen[k]; ok {
			delete(d.seen, k)
			return
		}
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
