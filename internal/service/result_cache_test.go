package service

import (
	"context"
	"testing"
	"time"

	"codequiz_backend/internal/grading"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T) (*RedisResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisResultCache(rdb), mr
}

func TestRedisResultCacheRoundTrip(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	ctx := context.Background()
	key := ResultCacheKey(1, 100, "run", "javascript", "function f(){}")

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(ctx, key, &grading.Report{Passed: 2, Total: 3, Display: "67%"}, time.Minute)
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "67%", got.Display)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestResultCacheKeyDistinguishesInputs(t *testing.T) {
	base := ResultCacheKey(1, 100, "run", "javascript", "code")
	assert.NotEqual(t, base, ResultCacheKey(2, 100, "run", "javascript", "code"))
	assert.NotEqual(t, base, ResultCacheKey(1, 101, "run", "javascript", "code"))
	assert.NotEqual(t, base, ResultCacheKey(1, 100, "submit", "javascript", "code"))
	assert.NotEqual(t, base, ResultCacheKey(1, 100, "run", "python", "code"))
	assert.NotEqual(t, base, ResultCacheKey(1, 100, "run", "javascript", "code "))
	assert.Equal(t, base, ResultCacheKey(1, 100, "run", "javascript", "code"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *RedisResultCache
	cache.Set(context.Background(), "k", &grading.Report{}, time.Minute)
	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}
