package resource

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campusbook/models"
	"campusbook/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by a Cache that holds no value for a key.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the small key/value surface the directory needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	Client *redis.Client
}

func (c RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (c RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Fetcher is the resource directory service.
type Fetcher interface {
	GetResource(ctx context.Context, token, id string) (*models.Resource, error)
	ListResources(ctx context.Context, token, resourceType string) ([]models.Resource, error)
}

// Directory looks resources up through a read-through cache.
type Directory struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration
}

func NewDirectory(fetcher Fetcher, cache Cache, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = utils.DefaultResourceCacheTTL
	}
	return &Directory{Fetcher: fetcher, Cache: cache, TTL: ttl}
}

// GetResource returns resource metadata, preferring the cache. Cache failures
// are logged and fall through to the directory service.
func (d *Directory) GetResource(ctx context.Context, token, id string) (*models.Resource, error) {
	logger := utils.GetLogger()
	key := utils.ResourceCachePrefix + id

	if d.Cache != nil {
		raw, err := d.Cache.Get(ctx, key)
		switch {
		case err == nil:
			var res models.Resource
			if jerr := json.Unmarshal([]byte(raw), &res); jerr == nil {
				return &res, nil
			}
			logger.Warn("discarding malformed cached resource", zap.String("resourceID", id))
		case !errors.Is(err, ErrCacheMiss):
			logger.Warn("resource cache read failed", zap.String("resourceID", id), zap.Error(err))
		}
	}

	res, err := d.Fetcher.GetResource(ctx, token, id)
	if err != nil {
		return nil, err
	}

	if d.Cache != nil {
		if data, jerr := json.Marshal(res); jerr == nil {
			if serr := d.Cache.Set(ctx, key, string(data), d.TTL); serr != nil {
				logger.Warn("resource cache write failed", zap.String("resourceID", id), zap.Error(serr))
			}
		}
	}
	return res, nil
}

// ListResources lists active resources. Listings are not cached; every
// returned entry refreshes the per-resource cache.
func (d *Directory) ListResources(ctx context.Context, token, resourceType string) ([]models.Resource, error) {
	list, err := d.Fetcher.ListResources(ctx, token, resourceType)
	if err != nil {
		return nil, err
	}
	if d.Cache != nil {
		for _, r := range list {
			data, jerr := json.Marshal(r)
			if jerr != nil {
				continue
			}
			if serr := d.Cache.Set(ctx, utils.ResourceCachePrefix+r.ID, string(data), d.TTL); serr != nil {
				utils.GetLogger().Warn("resource cache write failed", zap.String("resourceID", r.ID), zap.Error(serr))
				break
			}
		}
	}
	return list, nil
}
