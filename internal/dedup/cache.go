package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsdiet/internal/config"
)

const seenKeyPrefix = "newsdiet:seen:"

// SeenCache remembers dedup keys that are known to be stored.
type SeenCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}

// RedisCache is a SeenCache backed by Redis keys with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects lazily to the Redis server in the [redis] section.
func NewRedisCache(cfg *config.Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})
	return &RedisCache{client: client, ttl: cfg.SeenTTL()}
}

// Ping verifies the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Seen reports whether key was remembered and has not expired.
func (c *RedisCache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, cacheKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Remember stores key with the configured TTL.
func (c *RedisCache) Remember(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, cacheKey(key), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func cacheKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return seenKeyPrefix + hex.EncodeToString(sum[:])
}
