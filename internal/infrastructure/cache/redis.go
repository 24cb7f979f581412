package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
)

const (
	// recordCacheKeyPrefix is the prefix for video record cache keys in Redis.
	recordCacheKeyPrefix = "record:"
)

// RedisRecordCache implements RecordCache using Redis as the backing store.
type RedisRecordCache struct {
	client *redis.Client
}

// Compile-time verification that RedisRecordCache implements RecordCache.
var _ RecordCache = (*RedisRecordCache)(nil)

// NewRedisRecordCache creates a new Redis-backed video record cache.
func NewRedisRecordCache(client *redis.Client) *RedisRecordCache {
	return &RedisRecordCache{
		client: client,
	}
}

// Get retrieves a video record from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisRecordCache) Get(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error) {
	key := buildKey(tenant, videoID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record model.VideoRecord
	if err := json.Unmarshal(data, &record); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("deserialize record: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return &record, nil
}

// Set stores a video record in Redis cache with the specified TTL.
// The record's own JSON encoding is the wire format; it is the same stable
// contract the bucket documents use.
func (c *RedisRecordCache) Set(ctx context.Context, record *model.VideoRecord, ttl time.Duration) error {
	key := buildKey(record.UserID, record.VideoID)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Delete removes a video record from Redis cache.
func (c *RedisRecordCache) Delete(ctx context.Context, tenant, videoID string) error {
	key := buildKey(tenant, videoID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// buildKey constructs the Redis key for a video record.
// The document's bucket key uniquely identifies it, so the cache key mirrors it.
func buildKey(tenant, videoID string) string {
	return recordCacheKeyPrefix + tenant + "/" + videoID
}
