// Package storage provides Redis persistence for TowerBot.
package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/towerbot/internal/config"
)

// RedisClient wraps go-redis client. When Redis is not configured the
// client degrades to a no-op so the bot keeps working memory-only.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ctx     context.Context
	log     zerolog.Logger
}

// NewRedisClient creates a new Redis client using go-redis.
func NewRedisClient(cfg *config.Config, log zerolog.Logger) *RedisClient {
	if cfg.RedisURL == "" {
		log.Warn().Msg("Redis not configured (REDIS_URL missing), using memory only")
		return &RedisClient{enabled: false, ctx: context.Background(), log: log}
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse REDIS_URL")
		return &RedisClient{enabled: false, ctx: context.Background(), log: log}
	}

	opt.PoolSize = 5
	opt.MinIdleConns = 1
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Redis connection failed")
		return &RedisClient{enabled: false, ctx: ctx, log: log}
	}

	log.Info().Msg("Redis connected")
	return &RedisClient{
		client:  client,
		enabled: true,
		ctx:     ctx,
		log:     log,
	}
}

// Get retrieves a value from Redis. A missing key is "" with no error.
func (r *RedisClient) Get(key string) (string, error) {
	if !r.enabled {
		return "", nil
	}
	val, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set stores a value in Redis (no expiration).
func (r *RedisClient) Set(key string, value string) error {
	if !r.enabled {
		return nil
	}
	return r.client.Set(r.ctx, key, value, 0).Err()
}

// SetEx stores a value with a TTL.
func (r *RedisClient) SetEx(key string, value string, ttl time.Duration) error {
	if !r.enabled {
		return nil
	}
	return r.client.Set(r.ctx, key, value, ttl).Err()
}

// SetNX stores a value with a TTL only if the key does not exist.
// Returns true when the key was set. Used for cooldown guards.
func (r *RedisClient) SetNX(key string, value string, ttl time.Duration) (bool, error) {
	if !r.enabled {
		return true, nil
	}
	return r.client.SetNX(r.ctx, key, value, ttl).Result()
}

// Delete removes a key from Redis.
func (r *RedisClient) Delete(key string) error {
	if !r.enabled {
		return nil
	}
	return r.client.Del(r.ctx, key).Err()
}
