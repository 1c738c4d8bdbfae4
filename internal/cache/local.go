package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type localItem struct {
	raw       []byte
	expiresAt time.Time
}

// Local is a bounded in-process cache. Entries expire after their own TTL,
// and the least recently used entry is evicted once size is reached.
type Local struct {
	lru *expirable.LRU[string, localItem]
	now func() time.Time
}

// NewLocal creates a process-scoped cache holding at most size entries, none
// of which outlives maxTTL.
func NewLocal(size int, maxTTL time.Duration) *Local {
	if size <= 0 {
		size = 1024
	}
	return &Local{
		lru: expirable.NewLRU[string, localItem](size, nil, maxTTL),
		now: time.Now,
	}
}

// GetJSON loads key into dest
func (l *Local) GetJSON(_ context.Context, key string, dest interface{}) error {
	item, ok := l.lru.Get(key)
	if !ok {
		return ErrMiss
	}
	if !item.expiresAt.After(l.now()) {
		l.lru.Remove(key)
		return ErrMiss
	}
	return json.Unmarshal(item.raw, dest)
}

// SetJSON stores value under key for ttl
func (l *Local) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	l.lru.Add(key, localItem{raw: raw, expiresAt: l.now().Add(ttl)})
	return nil
}

// Delete removes a key from cache
func (l *Local) Delete(_ context.Context, key string) error {
	l.lru.Remove(key)
	return nil
}

// Len returns the number of cached entries
func (l *Local) Len() int {
	return l.lru.Len()
}
