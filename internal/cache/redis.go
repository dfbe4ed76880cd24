// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	fieldMime = "mime"
	fieldData = "data"
)

// RedisCache is a Redis-backed BlobCache. Each item is a hash under
// "<prefix><key>" with the MIME type and the bytes.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		puts   atomic.Int64
	}
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string // Redis server address (host:port)
	Password  string // Redis password (optional)
	DB        int    // Redis database number
	KeyPrefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, config RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis cache")

	return newRedisCache(client, config.KeyPrefix, logger), nil
}

func newRedisCache(client *redis.Client, prefix string, logger zerolog.Logger) *RedisCache {
	if prefix == "" {
		prefix = "leadcam:ref:"
	}
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) Put(ctx context.Context, key string, item Item, ttl time.Duration) error {
	k := c.key(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, fieldMime, item.MimeType, fieldData, item.Data)
		if ttl > 0 {
			pipe.PExpire(ctx, k, ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis put failed")
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	c.stats.puts.Add(1)
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Item, error) {
	vals, err := c.client.HGetAll(ctx, c.key(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		return Item{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	data, ok := vals[fieldData]
	if !ok {
		c.stats.misses.Add(1)
		return Item{}, ErrNotFound
	}
	c.stats.hits.Add(1)
	return Item{MimeType: vals[fieldMime], Data: []byte(data)}, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the cache prefix. Other keys in the same
// database are left alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func (c *RedisCache) Stats(ctx context.Context) Stats {
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}
	return Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Puts:        c.stats.puts.Load(),
		CurrentSize: len(keys),
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// HealthCheck checks if Redis is available.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
