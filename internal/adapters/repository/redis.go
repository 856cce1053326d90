package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/pkg/metrics"
)

// keyPrefix namespaces cache keys in a shared Redis instance.
const keyPrefix = "volmatch:distance:"

// RedisStore is a Store backed by Redis. Expiry is delegated to Redis TTLs,
// so entries vanish without any sweeping on our side. Useful when several
// service replicas should share one distance cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL overrides the default entry lifetime.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed distance cache.
func NewRedisStore(opt *redis.Options, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: redis.NewClient(opt),
		ttl:    DefaultTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the cached distance for a volunteer/event pair.
func (s *RedisStore) Get(ctx context.Context, userID, eventID string) (model.DistanceInfo, bool, error) {
	b, err := s.client.Get(ctx, keyPrefix+cacheKey(userID, eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return model.DistanceInfo{}, false, nil
	}
	if err != nil {
		return model.DistanceInfo{}, false, fmt.Errorf("redis get: %w", err)
	}

	var info model.DistanceInfo
	if err := json.Unmarshal(b, &info); err != nil {
		// A corrupt entry behaves as a miss; the worker will recompute it.
		metrics.RecordCacheMiss()
		return model.DistanceInfo{}, false, nil
	}
	metrics.RecordCacheHit()
	info.Cached = true
	return info, true, nil
}

// Put stores a distance result with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, userID, eventID string, info model.DistanceInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal distance info: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+cacheKey(userID, eventID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete drops a cached entry.
func (s *RedisStore) Delete(ctx context.Context, userID, eventID string) error {
	if err := s.client.Del(ctx, keyPrefix+cacheKey(userID, eventID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Count scans for live keys under the cache prefix. Best effort: a large
// keyspace makes this approximate by design.
func (s *RedisStore) Count(ctx context.Context) int {
	var cursor uint64
	total := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 1000).Result()
		if err != nil {
			return total
		}
		total += len(keys)
		if next == 0 {
			return total
		}
		cursor = next
	}
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
