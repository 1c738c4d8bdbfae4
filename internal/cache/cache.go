// Package cache provides the injectable TTL cache used in front of persisted
// recommendation lists. Two implementations exist: Redis, shared across
// processes, and an expiring LRU scoped to the process.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = errors.New("cache is disabled")
	// ErrMiss is returned when a key is absent or expired
	ErrMiss = errors.New("cache miss")
)

// Store is a JSON value cache with per-key TTL
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// HashKey builds a fixed-length key from its parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

var (
	_ Store = (*Cache)(nil)
	_ Store = (*Local)(nil)
)
