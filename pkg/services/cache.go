package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fature/monitoring-service/pkg/models"
)

// AggregationCache caches aggregation results. It uses Redis when an
// address is configured and reachable, and an in-process map otherwise,
// so the service works the same with or without a Redis deployment.
type AggregationCache struct {
	redis *redis.Client
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	points    []models.AggregatedPoint
	expiresAt time.Time
}

// NewAggregationCache builds a cache with the given TTL. redisAddr may be
// empty to force the in-memory backend.
func NewAggregationCache(redisAddr, redisPassword string, redisDB int, ttl time.Duration) *AggregationCache {
	c := &AggregationCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
	if redisAddr == "" {
		logrus.Info("No Redis address configured, caching aggregations in memory")
		return c
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Warnf("Redis unreachable at %s, caching aggregations in memory: %v", redisAddr, err)
		client.Close()
		return c
	}

	logrus.Infof("Caching aggregations in Redis at %s", redisAddr)
	c.redis = client
	return c
}

// CacheKey builds the cache key for one aggregation query.
func CacheKey(metricName string, agg models.Aggregation, period models.AggregationPeriod, start, end *time.Time) string {
	startPart, endPart := "", ""
	if start != nil {
		startPart = start.UTC().Format(time.RFC3339)
	}
	if end != nil {
		endPart = end.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("monitoring:agg:%s:%s:%s:%s:%s", metricName, agg, period, startPart, endPart)
}

// Get returns the cached points for the key, or false on a miss. Cache
// errors count as misses.
func (c *AggregationCache) Get(ctx context.Context, key string) ([]models.AggregatedPoint, bool) {
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				logrus.Warnf("Redis get failed for %s: %v", key, err)
			}
			return nil, false
		}
		var points []models.AggregatedPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			logrus.Warnf("Failed to decode cached aggregation for %s: %v", key, err)
			return nil, false
		}
		return points, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.points, true
}

// Set stores the points under the key for the cache's TTL. Failures are
// logged and ignored; caching is best-effort.
func (c *AggregationCache) Set(ctx context.Context, key string, points []models.AggregatedPoint) {
	if c.redis != nil {
		raw, err := json.Marshal(points)
		if err != nil {
			logrus.Warnf("Failed to encode aggregation for caching: %v", err)
			return
		}
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logrus.Warnf("Redis set failed for %s: %v", key, err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{points: points, expiresAt: time.Now().Add(c.ttl)}
}

// Close releases the Redis connection if one is in use.
func (c *AggregationCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
