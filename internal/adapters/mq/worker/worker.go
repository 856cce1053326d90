// Package worker runs the asynchronous distance enrichment pool.
//
// Each worker takes jobs off the queue, asks the distance service for the
// origin/destination pair, and writes the result into the cache store.
// Failures are logged and counted but never propagate: a pair that could
// not be computed simply stays "distance unknown" and sorts last.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/volunteerops/volmatch/internal/adapters/distance"
	"github.com/volunteerops/volmatch/internal/adapters/mq/queue"
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/pkg/logger"
	"github.com/volunteerops/volmatch/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Resolver computes the distance between two addresses.
type Resolver interface {
	Between(ctx context.Context, origin, destination string) (model.DistanceInfo, error)
}

// Sink stores computed distances keyed by volunteer/event pair.
type Sink interface {
	Put(ctx context.Context, userID, eventID string, info model.DistanceInfo) error
}

// Source is how workers receive jobs.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker consumes enrichment jobs until stopped.
type Worker struct {
	source   Source
	resolver Resolver
	sink     Sink
	name     string

	done chan struct{}
	log  logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in log fields.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates a single enrichment worker.
func NewWorker(source Source, resolver Resolver, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		resolver: resolver,
		sink:     sink,
		name:     "enricher",
		done:     make(chan struct{}),
		log:      logger.Get().Named("enricher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is cancelled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				metrics.RecordEnrichmentError()
				w.log.Error(ctx, "enrichment failed",
					logger.String("worker", w.name),
					logger.String("event_id", job.EventID),
					logger.Error(err),
				)
			}
		}
	}
}

// process handles one job end to end.
func (w *Worker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	info, err := w.resolver.Between(ctx, job.Origin, job.Destination)
	metrics.ObserveEnrichmentLatency(float64(time.Since(start).Milliseconds()))

	if errors.Is(err, distance.ErrNoRoute) {
		// Unroutable pairs are expected (bad addresses, PO boxes). Log at
		// debug and move on; the pair stays unannotated.
		w.log.Debug(ctx, "no route for pair",
			logger.String("event_id", job.EventID),
			logger.String("user_id", job.UserID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve distance: %w", err)
	}

	if err := w.sink.Put(ctx, job.UserID, job.EventID, info); err != nil {
		return fmt.Errorf("store distance: %w", err)
	}

	w.log.Debug(ctx, "distance enriched",
		logger.String("event_id", job.EventID),
		logger.String("user_id", job.UserID),
		logger.Float64("miles", info.DistanceValue),
	)
	return nil
}

// Pool manages a fixed set of enrichment workers.
type Pool struct {
	workers []*Worker
	log     logger.Logger
}

// NewPool creates and sizes the worker pool. A non-positive count defaults
// to twice the CPU count; distance lookups are network bound.
func NewPool(count int, source Source, resolver Resolver, sink Sink) *Pool {
	if count < 1 {
		count = runtime.NumCPU() * 2
	}

	p := &Pool{
		workers: make([]*Worker, count),
		log:     logger.Get().Named("enrich-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(source, resolver, sink, WithName("enricher-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop waits for workers to finish their current job, up to a timeout.
func (p *Pool) Stop() {
	deadline := time.After(shutdownTimeout)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-deadline:
			p.log.Warn(context.Background(), "worker shutdown timed out",
				logger.String("worker", w.name))
			return
		}
	}
}
