// File: utils/cache.go
package utils

import (
	"context"
	"time"

	"campusbook/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheClient caches resource metadata fetched from the directory service.
var CacheClient *redis.Client

// InitCache initializes the Redis cache client. An unreachable Redis is logged
// but not fatal: the directory falls back to the backend on every lookup.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		GetLogger().Warn("Redis cache unreachable; resource lookups will not be cached", zap.Error(err))
	}
}

// GetCacheClient returns the cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// ResourceCacheTTL returns the configured TTL for cached resource metadata.
func ResourceCacheTTL() time.Duration {
	if config.AppConfig.ResourceCacheTTLMinutes <= 0 {
		return DefaultResourceCacheTTL
	}
	return time.Duration(config.AppConfig.ResourceCacheTTLMinutes) * time.Minute
}
