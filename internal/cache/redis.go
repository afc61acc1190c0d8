package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
)

// RedisCache is a shared cache backed by Redis, used as L2 behind the LRU.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis parses a redis:// URL and pings the server once.
func NewRedis(ctx context.Context, rawURL, prefix string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisFromClient(rdb, prefix, ttl), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("cache: redis get failed: %v", err)
		}
		return "", false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		logger.Warnf("cache: redis set failed: %v", err)
	}
}

// Purge removes only keys under this cache's prefix.
func (c *RedisCache) Purge(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warnf("cache: redis scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warnf("cache: redis purge failed: %v", err)
	}
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
