// Package metrics provides Prometheus metrics for the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	registry  prometheus.Registerer
	buckets   []float64

	// Matching
	matchEvaluations prometheus.Counter
	matchRequests    prometheus.Counter
	rankingLatency   prometheus.Histogram

	// Distance cache
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheExpired prometheus.Counter
	cacheSize    prometheus.Gauge

	// Enrichment pipeline
	enrichEnqueued      prometheus.Counter
	enrichDequeued      prometheus.Counter
	enrichDropped       *prometheus.CounterVec
	enrichErrors        prometheus.Counter
	enrichLatency       prometheus.Histogram
	enrichQueueSize     prometheus.Gauge
	enrichQueueCapacity prometheus.Gauge
	workerCount         prometheus.Gauge

	// Notifications
	notificationsSent      prometheus.Counter
	notificationsDuplicate prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager on a private registry, so the default Go collectors do not
// pollute the scrape output.
var (
	globalManager  *Manager              //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private scrape registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRegistry registers collectors on the given registry instead of the
// Prometheus default.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "volmatch",
		registry:  prometheus.DefaultRegisterer,
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.register()
	return m
}

func (m *Manager) register() {
	auto := promauto.With(m.registry)

	m.matchEvaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "match_evaluations_total",
		Help: "Total volunteer/event pairs evaluated",
	})
	m.matchRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "match_requests_total",
		Help: "Total matching requests served",
	})
	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "ranking_latency_milliseconds",
		Help: "Latency of one filter+sort ranking pass", Buckets: m.buckets,
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "distance_cache_hits_total",
		Help: "Distance cache hits",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "distance_cache_misses_total",
		Help: "Distance cache misses",
	})
	m.cacheExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "distance_cache_expired_total",
		Help: "Distance cache entries dropped on expiry",
	})
	m.cacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "distance_cache_entries",
		Help: "Live distance cache entries",
	})

	m.enrichEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "enrichment_enqueued_total",
		Help: "Enrichment jobs accepted by the queue",
	})
	m.enrichDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "enrichment_dequeued_total",
		Help: "Enrichment jobs handed to workers",
	})
	m.enrichDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "enrichment_dropped_total",
		Help: "Enrichment jobs rejected by the queue",
	}, []string{"reason"})
	m.enrichErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "enrichment_errors_total",
		Help: "Enrichment jobs that failed in a worker",
	})
	m.enrichLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "enrichment_latency_milliseconds",
		Help: "Distance service round-trip latency", Buckets: m.buckets,
	})
	m.enrichQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "enrichment_queue_size",
		Help: "Pending enrichment jobs",
	})
	m.enrichQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "enrichment_queue_capacity",
		Help: "Enrichment queue capacity",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "enrichment_workers",
		Help: "Running enrichment workers",
	})

	m.notificationsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "notifications_sent_total",
		Help: "Match notifications delivered to the backend",
	})
	m.notificationsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "notifications_duplicate_total",
		Help: "Match notifications suppressed as duplicates",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "http_request_duration_milliseconds",
		Help: "HTTP request latency", Buckets: m.buckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry served on the health endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers on the global manager.

func RecordMatchEvaluation() { globalManager.matchEvaluations.Inc() }

func RecordMatchRequest() { globalManager.matchRequests.Inc() }

func ObserveRankingLatency(ms float64) { globalManager.rankingLatency.Observe(ms) }

func RecordCacheHit()       { globalManager.cacheHits.Inc() }
func RecordCacheMiss()      { globalManager.cacheMisses.Inc() }
func RecordCacheExpiry()    { globalManager.cacheExpired.Inc() }
func UpdateCacheSize(n int) { globalManager.cacheSize.Set(float64(n)) }

func RecordEnrichmentEnqueue()              { globalManager.enrichEnqueued.Inc() }
func RecordEnrichmentDequeue()              { globalManager.enrichDequeued.Inc() }
func RecordEnrichmentDropped(reason string) { globalManager.enrichDropped.WithLabelValues(reason).Inc() }
func RecordEnrichmentError()                { globalManager.enrichErrors.Inc() }
func ObserveEnrichmentLatency(ms float64)   { globalManager.enrichLatency.Observe(ms) }
func UpdateEnrichmentQueueSize(n int)       { globalManager.enrichQueueSize.Set(float64(n)) }
func UpdateEnrichmentQueueCapacity(n int)   { globalManager.enrichQueueCapacity.Set(float64(n)) }
func UpdateWorkerCount(n int)               { globalManager.workerCount.Set(float64(n)) }

func RecordNotificationSent()      { globalManager.notificationsSent.Inc() }
func RecordNotificationDuplicate() { globalManager.notificationsDuplicate.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func ObserveHTTPDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
