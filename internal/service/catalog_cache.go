package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/grocery-store/pkg/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogVersionKey = "catalog:version"

// ListingCache caches catalog reads. Implementations must never fail the caller.
type ListingCache interface {
	Load(ctx context.Context, key string, dest any) bool
	Store(ctx context.Context, key string, value any)
	Invalidate(ctx context.Context)
}

// RedisListingCache namespaces entries by a version counter, so invalidation
// is a single INCR and stale entries simply expire.
type RedisListingCache struct {
	redis   *database.Redis
	ttl     time.Duration
	metrics *Metrics
	logger  *zap.Logger
}

func NewRedisListingCache(redis *database.Redis, ttl time.Duration, metrics *Metrics, logger *zap.Logger) *RedisListingCache {
	return &RedisListingCache{redis: redis, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *RedisListingCache) versionedKey(ctx context.Context, key string) (string, error) {
	version, err := c.redis.Client.Get(ctx, catalogVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("catalog:v%d:%s", version, key), nil
}

func (c *RedisListingCache) Load(ctx context.Context, key string, dest any) bool {
	fullKey, err := c.versionedKey(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache unavailable", zap.Error(err))
		return false
	}

	b, err := c.redis.Client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		c.metrics.CacheLookup(ctx, false)
		return false
	}

	if err := json.Unmarshal(b, dest); err != nil {
		c.logger.Warn("catalog cache entry is corrupt", zap.Error(err))
		c.metrics.CacheLookup(ctx, false)
		return false
	}

	c.metrics.CacheLookup(ctx, true)
	return true
}

func (c *RedisListingCache) Store(ctx context.Context, key string, value any) {
	fullKey, err := c.versionedKey(ctx, key)
	if err != nil {
		return
	}

	b, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("catalog cache encode failed", zap.Error(err))
		return
	}

	if err := c.redis.Client.Set(ctx, fullKey, b, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

func (c *RedisListingCache) Invalidate(ctx context.Context) {
	if err := c.redis.Client.Incr(ctx, catalogVersionKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

// NoopListingCache disables caching.
type NoopListingCache struct{}

func (NoopListingCache) Load(context.Context, string, any) bool { return false }
func (NoopListingCache) Store(context.Context, string, any)     {}
func (NoopListingCache) Invalidate(context.Context)             {}
