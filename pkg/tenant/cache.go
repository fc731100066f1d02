package tenant

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// Cache stores resolved descriptors per tenant identifier. A failing cache
// behaves like a miss.
type Cache interface {
	// Get retrieves descriptors from cache by key.
	Get(ctx context.Context, key string) ([]datasource.Descriptor, bool)

	// Set stores descriptors in cache with the given TTL.
	Set(ctx context.Context, key string, descriptors []datasource.Descriptor, ttl time.Duration)

	// Delete removes a key from cache.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

// inMemoryCache is a size-bounded LRU with per-item expiry.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheItem struct {
	descriptors []datasource.Descriptor
	expiresAt   time.Time
}

// DefaultCacheSize is the default maximum number of items in the cache.
const DefaultCacheSize = 1000

// NewInMemoryCache creates a new in-memory cache with automatic cleanup.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates a new in-memory cache with specified size limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	cache := &inMemoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go cache.cleanup(time.Minute)

	return cache
}

func (c *inMemoryCache) Get(_ context.Context, key string) ([]datasource.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, key)
		c.removeLRU(key)
		return nil, false
	}

	c.touch(key)
	return slices.Clone(item.descriptors), true
}

func (c *inMemoryCache) Set(_ context.Context, key string, descriptors []datasource.Descriptor, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize && len(c.lru) > 0 {
		delete(c.items, c.lru[0])
		c.lru = c.lru[1:]
	}

	c.items[key] = cacheItem{
		descriptors: slices.Clone(descriptors),
		expiresAt:   c.now().Add(ttl),
	}
	c.touch(key)
}

func (c *inMemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.removeLRU(key)
}

func (c *inMemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

// touch moves key to the most recently used end.
func (c *inMemoryCache) touch(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *inMemoryCache) removeLRU(key string) {
	if i := slices.Index(c.lru, key); i >= 0 {
		c.lru = slices.Delete(c.lru, i, i+1)
	}
}

// Close stops the cleanup goroutine and waits for it to finish.
func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

type noOpCache struct{}

// NewNoOpCache creates a cache that never stores anything.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) ([]datasource.Descriptor, bool) { return nil, false }

func (noOpCache) Set(context.Context, string, []datasource.Descriptor, time.Duration) {}

func (noOpCache) Delete(context.Context, string) {}

func (noOpCache) Close() error { return nil }
