package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/creaverse/dao-rewards/pkg/config"
	"github.com/creaverse/dao-rewards/pkg/logging"
)

const keyNamespace = "creaverse"

// Cache wraps Redis client
type Cache struct {
	client *redis.Client
}

// New creates a new Redis cache client. It returns (nil, nil) when Redis is
// not configured; a nil *Cache reports ErrCacheDisabled from every method.
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.WithComponent("cache").Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.WithComponent("cache").Info("Redis connection established")

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) namespaceKey(key string) string {
	return keyNamespace + ":" + key
}

// GetJSON loads key into dest
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	raw, err := c.client.Get(ctx, c.namespaceKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON stores value under key for ttl
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.namespaceKey(key), raw, ttl).Err()
}

// Delete removes a key from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, c.namespaceKey(key)).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
