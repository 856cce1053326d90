// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the volunteer REST backend.
	BackendURL string `koanf:"backend_url"`

	// BackendToken authenticates calls to the backend.
	BackendToken string `koanf:"backend_token"`

	// DistanceURL overrides the distance matrix endpoint. Empty uses the
	// provider default.
	DistanceURL string `koanf:"distance_url"`

	// DistanceAPIKey authenticates distance matrix calls. Empty disables
	// distance enrichment.
	DistanceAPIKey string `koanf:"distance_api_key"`

	// WorkerCount sets the number of distance enrichment workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory enrichment job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the notification deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CacheBackend selects the distance cache: "memory" or "redis".
	CacheBackend string `koanf:"cache_backend"`

	// RedisAddr is the redis host:port, used when CacheBackend is "redis".
	RedisAddr string `koanf:"redis_addr"`

	// CacheTTLHours controls how long cached distances stay valid.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// MaxDistance is the default match radius in miles.
	MaxDistance float64 `koanf:"max_distance"`

	// SkillWeight, DistanceWeight and UrgencyWeight set the composite
	// score weights. They should sum to 1.
	SkillWeight    float64 `koanf:"skill_weight"`
	DistanceWeight float64 `koanf:"distance_weight"`
	UrgencyWeight  float64 `koanf:"urgency_weight"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9090",
		BackendURL:     "http://localhost:8000",
		CacheBackend:   "memory",
		RedisAddr:      "localhost:6379",
		CacheTTLHours:  24,
		WorkerCount:    runtime.NumCPU() * 2,
		QueueSize:      10_000,
		DedupeSize:     50_000,
		MaxDistance:    50,
		SkillWeight:    0.5,
		DistanceWeight: 0.2,
		UrgencyWeight:  0.3,
	}
}
