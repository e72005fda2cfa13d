package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fature/monitoring-service/pkg/models"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := newMemoryCache(time.Minute)
	ctx := context.Background()

	key := CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil)
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	points := []models.AggregatedPoint{{Period: "2025-03-10", Value: 300}}
	cache.Set(ctx, key, points)

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, points, got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := newMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	key := CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil)
	cache.Set(ctx, key, []models.AggregatedPoint{{Period: "2025-03-10", Value: 300}})

	time.Sleep(20 * time.Millisecond)
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	keys := map[string]bool{
		CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil):     true,
		CacheKey("revenue_hourly", models.AggregationAvg, models.PeriodDay, nil, nil):     true,
		CacheKey("revenue_hourly", models.AggregationSum, models.PeriodHour, nil, nil):    true,
		CacheKey("active_users", models.AggregationSum, models.PeriodDay, nil, nil):       true,
		CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, &start, nil):  true,
		CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, &start, &end): true,
	}
	assert.Len(t, keys, 6)
}

func TestRedisFallbackToMemory(t *testing.T) {
	// Unreachable Redis must degrade to the in-memory backend
	cache := NewAggregationCache("127.0.0.1:1", "", 0, time.Minute)
	ctx := context.Background()

	key := CacheKey("revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil)
	points := []models.AggregatedPoint{{Period: "2025-03-10", Value: 300}}
	cache.Set(ctx, key, points)

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, points, got)
}
