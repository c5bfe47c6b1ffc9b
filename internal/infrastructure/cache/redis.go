package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"honeypot-lab/internal/config"
	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// Cache key namespaces
const (
	keyReportPrefix    = "cache:report:"
	keyRateLimitPrefix = "rate_limit:"
)

// reportTTL bounds staleness when invalidation is missed (e.g. a concurrent
// writer on another instance).
const reportTTL = 5 * time.Minute

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Client returns the underlying Redis client
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, c.key(key), string(data), ttl).Err()
}

// Delete removes keys from cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixed...).Err()
}

// GetReport returns a cached session report, if any
func (c *RedisCache) GetReport(ctx context.Context, sessionID string) (*models.SessionReport, bool) {
	var report models.SessionReport
	if err := c.GetJSON(ctx, keyReportPrefix+sessionID, &report); err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Msg("report cache read failed")
		}
		return nil, false
	}
	return &report, true
}

// SetReport caches a session report
func (c *RedisCache) SetReport(ctx context.Context, sessionID string, report *models.SessionReport) {
	if err := c.SetJSON(ctx, keyReportPrefix+sessionID, report, reportTTL); err != nil {
		c.logger.Debug().Err(err).Msg("report cache write failed")
	}
}

// Invalidate drops the cached report for a session
func (c *RedisCache) Invalidate(ctx context.Context, sessionID string) {
	if err := c.Delete(ctx, keyReportPrefix+sessionID); err != nil {
		c.logger.Debug().Err(err).Msg("report cache invalidation failed")
	}
}

// CheckRateLimit checks and increments the rate limit counter for a client.
// Returns (allowed, remaining, resetTime, error).
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	windowKey := fmt.Sprintf("%s%s:%d", keyRateLimitPrefix, key, now.Unix()/int64(window.Seconds()))

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, c.key(windowKey))
	pipe.Expire(ctx, c.key(windowKey), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining, now.Add(window), nil
}
