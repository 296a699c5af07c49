// Package cache provides the key/value store used for response caching and
// rate-limit counters. Redis is used when configured; otherwise an in-process
// store keeps a single instance working without extra infrastructure.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/metrics"
)

// ErrMiss is returned by Get for absent or expired keys
var ErrMiss = errors.New("cache miss")

// Store is the minimal key/value interface shared by the redis and memory backends
type Store interface {
	// Get returns the value of key or ErrMiss
	Get(ctx context.Context, key string) (string, error)
	// Set stores value with an expiry; zero means no expiry
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Del removes keys
	Del(ctx context.Context, keys ...string) error
	// Incr atomically increments a counter and returns the new value
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets the time-to-live of an existing key
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining time-to-live, or a non-positive value when the key has none
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Ping checks connectivity
	Ping(ctx context.Context) error
	// Close releases connections
	Close() error
}

var (
	defaultMu    sync.RWMutex
	defaultStore Store
)

// SetDefault installs the process-wide store
func SetDefault(s Store) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = s
}

// Default returns the process-wide store, creating an in-memory one on first use
func Default() Store {
	defaultMu.RLock()
	s := defaultStore
	defaultMu.RUnlock()
	if s != nil {
		return s
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		defaultStore = NewMemoryStore()
	}
	return defaultStore
}

// Open returns a redis store when redisURL is set, otherwise a memory store
func Open(ctx context.Context, redisURL, prefix string) (Store, error) {
	if redisURL == "" {
		logger.Info("cache using in-memory store")
		return NewMemoryStore(), nil
	}
	store, err := NewRedisStore(ctx, redisURL, prefix)
	if err != nil {
		return nil, err
	}
	logger.Info("cache using redis", "prefix", prefix)
	return store, nil
}

// GetJSON decodes a cached JSON value into dst. It reports false on a miss.
func GetJSON(ctx context.Context, s Store, key string, dst interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value encoded as JSON
func SetJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return s.Set(ctx, key, string(raw), ttl)
}

// Remember returns the cached value under namespace:key, calling load and
// caching its result on a miss. Cache failures never fail the call.
func Remember[T any](ctx context.Context, s Store, namespace, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	fullKey := namespace + ":" + key

	var cached T
	hit, err := GetJSON(ctx, s, fullKey, &cached)
	switch {
	case err != nil:
		logger.Warn("cache read failed", "key", fullKey, "error", err)
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
	case hit:
		metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
		return cached, nil
	default:
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := SetJSON(ctx, s, fullKey, value, ttl); err != nil {
		logger.Warn("cache write failed", "key", fullKey, "error", err)
	}
	return value, nil
}
