// Package cache holds the Redis-backed adapters: the settings read cache and
// the reminder duplicate guard.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

const settingsKeyPrefix = "ruachconnect:setting:"

// SettingsSource is the durable store behind the cache.
type SettingsSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// SettingsCache implements ports.SettingsStore on top of the settings table,
// memoizing values in Redis. Settings change rarely but are read on every
// intake, so a short TTL keeps reads cheap while still picking up edits.
// Every failure path falls back to the caller's default: configuration reads
// fail open.
type SettingsCache struct {
	source SettingsSource
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ ports.SettingsStore = (*SettingsCache)(nil)

func NewSettingsCache(source SettingsSource, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SettingsCache{source: source, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *SettingsCache) Int(ctx context.Context, key string, fallback int) int {
	raw, ok := c.lookup(ctx, key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.logger.Warn("setting is not an integer, using fallback",
			zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}

func (c *SettingsCache) Bool(ctx context.Context, key string, fallback bool) bool {
	raw, ok := c.lookup(ctx, key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.logger.Warn("setting is not a boolean, using fallback",
			zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}

func (c *SettingsCache) lookup(ctx context.Context, key string) (string, bool) {
	cacheKey := settingsKeyPrefix + key

	cached, err := c.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		return cached, true
	}
	if err != redis.Nil {
		c.logger.Warn("settings cache read failed, falling back to database",
			zap.String("key", key), zap.Error(err))
	}

	value, err := c.source.Get(ctx, key)
	if err != nil {
		c.logger.Warn("setting unavailable, using fallback",
			zap.String("key", key), zap.Error(err))
		return "", false
	}

	if err := c.redis.Set(ctx, cacheKey, value, c.ttl).Err(); err != nil {
		c.logger.Warn("settings cache write failed",
			zap.String("key", key), zap.Error(err))
	}
	return value, true
}
