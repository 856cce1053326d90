// Package queue defines the contract for enqueuing and consuming distance
// enrichment jobs.
//
// One job is produced per (volunteer, event) pair whose distance is not in
// the cache. Workers consume jobs, call the distance service, and write the
// results back. Jobs are fire-and-forget: a dropped job only means the next
// matching pass enqueues the pair again.
package queue

import (
	"context"
	"sync"

	"github.com/volunteerops/volmatch/pkg/metrics"
)

const defaultCapacity = 10000

// Job describes one distance computation.
type Job struct {
	UserID      string
	EventID     string
	Origin      string // volunteer's full address
	Destination string // event venue
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. Returns false when the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel delivering jobs until the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of pending jobs.
	Len(ctx context.Context) int

	// Close stops the queue; pending jobs are still delivered.
	Close() error
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of pending jobs.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory job queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateEnrichmentQueueCapacity(q.capacity)
	return q
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEnrichmentDropped("closed")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordEnrichmentEnqueue()
		metrics.UpdateEnrichmentQueueSize(len(q.jobs))
		return true
	case <-ctx.Done():
		metrics.RecordEnrichmentDropped("context_cancelled")
		return false
	default:
		metrics.RecordEnrichmentDropped("queue_full")
		return false
	}
}

// Dequeue returns a channel that delivers pending jobs.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.RecordEnrichmentDequeue()
				metrics.UpdateEnrichmentQueueSize(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close stops accepting jobs and lets consumers drain what remains.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}
