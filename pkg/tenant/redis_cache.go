package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
)

// RedisCache shares resolved descriptors between service instances.
// Values are stored as JSON under KeyPrefix + identifier. Redis failures
// are logged and treated as misses.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
	log       *slog.Logger
}

// NewRedisCache creates a Redis-backed cache. The client is owned by the
// caller; Close does not close it.
func NewRedisCache(client redis.UniversalClient, keyPrefix string, log *slog.Logger) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "tenantconn:descriptors:"
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix, log: log.With(logger.Component("tenant_cache"))}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]datasource.Descriptor, bool) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "failed to read cached tenant connections", logger.TenantGroup(key), logger.Error(err))
		}
		return nil, false
	}

	var descriptors []datasource.Descriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		c.log.WarnContext(ctx, "dropping malformed cache entry", logger.TenantGroup(key), logger.Error(err))
		c.Delete(ctx, key)
		return nil, false
	}
	return descriptors, true
}

func (c *RedisCache) Set(ctx context.Context, key string, descriptors []datasource.Descriptor, ttl time.Duration) {
	raw, err := json.Marshal(descriptors)
	if err != nil {
		c.log.WarnContext(ctx, "failed to encode tenant connections", logger.TenantGroup(key), logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "failed to cache tenant connections", logger.TenantGroup(key), logger.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		c.log.WarnContext(ctx, "failed to delete cached tenant connections", logger.TenantGroup(key), logger.Error(err))
	}
}

func (c *RedisCache) Close() error { return nil }
