// Package cache is a small JSON cache over Redis. A Store with no client
// (Redis not configured or unreachable) behaves as an always-miss cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store reads and writes JSON values in Redis under a key prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect creates a Redis-backed store and verifies the connection with a ping.
// On failure it returns a disabled store together with the error, so the caller
// can log a warning and carry on without caching.
func Connect(ctx context.Context, addr, password, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Disabled(), fmt.Errorf("cache: redis ping: %w", err)
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Disabled returns a store that never hits.
func Disabled() *Store { return &Store{} }

// Enabled reports whether the store is backed by Redis.
func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(val, dest) == nil
}

// Set stores value under key for the given TTL.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Del removes one or more keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Ping checks the Redis connection. A disabled store reports nil.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Close()
}
