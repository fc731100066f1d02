package tenant

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
)

// Resolver maps a tenant identifier (a tenant group code) to the databases
// that serve it, in the order the caller should use them.
type Resolver interface {
	ResolveTenantConnections(ctx context.Context, identifier string) ([]datasource.Descriptor, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(ctx context.Context, identifier string) ([]datasource.Descriptor, error)

// ResolveTenantConnections calls the function.
func (f ResolverFunc) ResolveTenantConnections(ctx context.Context, identifier string) ([]datasource.Descriptor, error) {
	return f(ctx, identifier)
}

// GroupLister enumerates every known tenant identifier.
type GroupLister interface {
	TenantGroups(ctx context.Context) ([]string, error)
}

// StaticResolver serves descriptors from a fixed map. It is useful for
// single-deployment setups and tests.
type StaticResolver map[string][]datasource.Descriptor

// ResolveTenantConnections returns a copy of the descriptors for identifier.
func (s StaticResolver) ResolveTenantConnections(_ context.Context, identifier string) ([]datasource.Descriptor, error) {
	return slices.Clone(s[identifier]), nil
}

// TenantGroups returns the identifiers in sorted order.
func (s StaticResolver) TenantGroups(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(s)), nil
}

// CachedResolver memoizes another Resolver. Only non-empty results are
// cached; errors and empty results always go to the wrapped resolver.
type CachedResolver struct {
	next  Resolver
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedResolver wraps next with cache. A non-positive ttl means 5 minutes.
func NewCachedResolver(next Resolver, cache Cache, ttl time.Duration, log *slog.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cache == nil {
		cache = NewNoOpCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedResolver{next: next, cache: cache, ttl: ttl, log: log}
}

// ResolveTenantConnections serves from the cache when possible.
func (c *CachedResolver) ResolveTenantConnections(ctx context.Context, identifier string) ([]datasource.Descriptor, error) {
	if cached, ok := c.cache.Get(ctx, identifier); ok {
		return cached, nil
	}

	descriptors, err := c.next.ResolveTenantConnections(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if len(descriptors) > 0 {
		c.cache.Set(ctx, identifier, descriptors, c.ttl)
		c.log.DebugContext(ctx, "cached tenant connections", logger.TenantGroup(identifier), slog.Int("count", len(descriptors)))
	}
	return descriptors, nil
}

// Invalidate drops the cached descriptors for identifier.
func (c *CachedResolver) Invalidate(ctx context.Context, identifier string) {
	c.cache.Delete(ctx, identifier)
}
