package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores tenant rows by id. It caches repository data only and must
// never be used to hold a request's resolved tenant.
type Cache interface {
	// Get retrieves a tenant from cache by id.
	Get(ctx context.Context, id int64) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, id int64)

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultCacheSize is the default maximum number of items in the cache.
const DefaultCacheSize = 1000

// CacheOption configures the in-memory cache.
type CacheOption func(*inMemoryCache)

// WithMaxSize bounds the number of cached tenants. Non-positive values are ignored.
func WithMaxSize(n int) CacheOption {
	return func(c *inMemoryCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept.
// Zero disables the background sweeper.
func WithCleanupInterval(d time.Duration) CacheOption {
	return func(c *inMemoryCache) {
		c.cleanupInterval = d
	}
}

// WithCacheClock overrides the time source, mainly for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *inMemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// inMemoryCache is an LRU cache with per-item expiry.
type inMemoryCache struct {
	mu              sync.Mutex
	items           map[int64]cacheItem
	lru             []int64 // least recently used first
	maxSize         int
	cleanupInterval time.Duration
	now             func() time.Time
	stop            chan struct{}
	done            chan struct{}
	closed          bool
}

// NewInMemoryCache creates an LRU cache. A background sweeper removes
// expired entries every minute unless configured otherwise.
func NewInMemoryCache(opts ...CacheOption) Cache {
	c := &inMemoryCache{
		items:           make(map[int64]cacheItem),
		maxSize:         DefaultCacheSize,
		cleanupInterval: time.Minute,
		now:             time.Now,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lru = make([]int64, 0, c.maxSize)

	if c.cleanupInterval > 0 {
		go c.cleanup()
	} else {
		close(c.done)
	}
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, id int64) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return nil, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, id)
		c.removeLRU(id)
		return nil, false
	}

	c.touchLRU(id)
	return clone(item.tenant), true
}

func (c *inMemoryCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) {
	if t == nil || ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[t.ID]; !exists && len(c.items) >= c.maxSize && len(c.lru) > 0 {
		evict := c.lru[0]
		delete(c.items, evict)
		c.lru = c.lru[1:]
	}

	c.items[t.ID] = cacheItem{tenant: clone(t), expiresAt: c.now().Add(ttl)}
	c.touchLRU(t.ID)
}

func (c *inMemoryCache) Delete(ctx context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, id)
	c.removeLRU(id)
}

// Close stops the sweeper and waits for it to exit. Safe to call twice.
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

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
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
	for id, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, id)
			c.removeLRU(id)
		}
	}
}

func (c *inMemoryCache) touchLRU(id int64) {
	c.removeLRU(id)
	c.lru = append(c.lru, id)
}

func (c *inMemoryCache) removeLRU(id int64) {
	for i, k := range c.lru {
		if k == id {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// noOpCache never stores anything.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache { return noOpCache{} }

func (noOpCache) Get(context.Context, int64) (*Tenant, bool)  { return nil, false }
func (noOpCache) Set(context.Context, *Tenant, time.Duration) {}
func (noOpCache) Delete(context.Context, int64)               {}
func (noOpCache) Close() error                                { return nil }
