package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache stores snapshots in Redis with a fixed TTL. Redis expires the
// keys itself; LastUpdated is additionally checked on read so stale entries
// surviving a dump restore still read as misses.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed approval status cache
func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, requestID, permission string) (*Snapshot, bool) {
	key := approvalKey(requestID, permission)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.Warn("Corrupt cache entry, dropping", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, key)
		return nil, false
	}

	if time.Since(time.UnixMilli(snap.LastUpdated)) > c.ttl {
		c.rdb.Del(ctx, key)
		return nil, false
	}

	return &snap, true
}

func (c *RedisCache) Put(ctx context.Context, requestID, permission string, snap *Snapshot) {
	key := approvalKey(requestID, permission)

	raw, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("Failed to marshal cache snapshot", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, requestID string, permissions []string) {
	if len(permissions) == 0 {
		return
	}
	keys := make([]string, 0, len(permissions))
	for _, p := range permissions {
		keys = append(keys, approvalKey(requestID, p))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", zap.String("request_id", requestID), zap.Error(err))
	}
}
