package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs Client with a Redis connection (the REDIS_HOST
// environment variable named in the external interfaces). Mirrors the
// layering used by the goadesign-goa-ai example's Pulse client wrapper:
// callers build a *redis.Client and pass it in, and RedisClient exposes
// only the thin Get/Set surface the executor actually needs.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient dials host (e.g. "localhost:6379") and returns a Client.
func NewRedisClient(host string) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{Addr: host})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("kvstore: connecting to redis at %s: %w", host, err)
	}
	return &RedisClient{rdb: rdb}, nil
}

// Set implements Client.
func (c *RedisClient) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Get implements Client.
func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return value, true, nil
}

// Close releases the underlying Redis connection.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
