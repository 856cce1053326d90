package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/volunteerops/volmatch/internal/adapters/backend"
	"github.com/volunteerops/volmatch/internal/adapters/distance"
	"github.com/volunteerops/volmatch/internal/adapters/http/api"
	"github.com/volunteerops/volmatch/internal/adapters/repository"
	"github.com/volunteerops/volmatch/internal/app"
	"github.com/volunteerops/volmatch/internal/config"
	"github.com/volunteerops/volmatch/pkg/logger"
	"github.com/volunteerops/volmatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithBackend(newBackend(cfg)),
		app.WithStore(newStore(ctx, cfg, log)),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDefaultMaxDistance(cfg.MaxDistance),
		app.WithWeights(cfg.SkillWeight, cfg.DistanceWeight, cfg.UrgencyWeight),
	}
	if cfg.DistanceAPIKey != "" {
		opts = append(opts, app.WithDistanceResolver(newDistance(cfg)))
	} else {
		log.Warn(ctx, "no distance_api_key configured; distance enrichment disabled")
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

func newBackend(cfg *config.Config) *backend.Client {
	return backend.New(cfg.BackendURL, cfg.BackendToken)
}

func newDistance(cfg *config.Config) *distance.Client {
	var opts []distance.Option
	if cfg.DistanceURL != "" {
		opts = append(opts, distance.WithBaseURL(cfg.DistanceURL))
	}
	return distance.New(cfg.DistanceAPIKey, opts...)
}

func newStore(ctx context.Context, cfg *config.Config, log logger.Logger) repository.Store {
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if cfg.CacheBackend == "redis" {
		log.Info(ctx, "using redis distance cache", logger.String("addr", cfg.RedisAddr))
		return repository.NewRedisStore(&redis.Options{Addr: cfg.RedisAddr},
			repository.WithRedisTTL(ttl))
	}
	return repository.NewMemoryStore(repository.WithTTL(ttl))
}

// startServiceMetricsUpdater periodically pushes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if n, ok := stats["queue_length"].(int); ok {
				metrics.UpdateEnrichmentQueueSize(n)
			}
			if n, ok := stats["cache_entries"].(int); ok {
				metrics.UpdateCacheSize(n)
			}
			if n, ok := stats["worker_count"].(int); ok {
				metrics.UpdateWorkerCount(n)
			}
		}
	}
}
