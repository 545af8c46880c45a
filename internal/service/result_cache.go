package service

import (
	"codequiz_backend/internal/grading"
	"codequiz_backend/pkg/logger"
	"codequiz_backend/pkg/monitoring"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const resultCachePrefix = "codequiz:grading:"

// ResultCache 缓存相同代码的评测结果
type ResultCache interface {
	Get(ctx context.Context, key string) (*grading.Report, bool)
	Set(ctx context.Context, key string, report *grading.Report, ttl time.Duration)
}

// ResultCacheKey 题目版本变化（测试用例被修改）后旧缓存自然失效
func ResultCacheKey(questionID uint, version int64, scope, language, code string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%d\x00%s\x00%s\x00", questionID, version, scope, language)
	h.Write([]byte(code))
	return resultCachePrefix + hex.EncodeToString(h.Sum(nil))
}

type RedisResultCache struct {
	rdb *redis.Client
}

func NewRedisResultCache(rdb *redis.Client) *RedisResultCache {
	return &RedisResultCache{rdb: rdb}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*grading.Report, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("grading cache read failed", zap.Error(err))
		}
		monitoring.ObserveCache(false)
		return nil, false
	}
	var report grading.Report
	if err := json.Unmarshal(data, &report); err != nil {
		monitoring.ObserveCache(false)
		return nil, false
	}
	monitoring.ObserveCache(true)
	return &report, true
}

func (c *RedisResultCache) Set(ctx context.Context, key string, report *grading.Report, ttl time.Duration) {
	if c == nil || c.rdb == nil || report == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log.Warn("grading cache write failed", zap.Error(err))
	}
}
