package previewers

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/meoww-bot/meoww/internal/platform/observability"
)

const (
	defaultPageCacheTTL        = 24 * time.Hour
	defaultPageCacheMaxEntries = 1024
	pageCacheCleanupInterval   = 10 * time.Minute

	cacheResultHit    = "hit"
	cacheResultMiss   = "miss"
	cacheResultShared = "shared"
)

// PageCache holds resolved gallery page lists keyed by content id.
// Lists are never mutated after they are stored. Concurrent misses for the
// same key share one load.
type PageCache struct {
	items      *cache.Cache
	group      singleflight.Group
	maxEntries int
	mu         sync.Mutex
}

// NewPageCache creates a cache whose entries expire after ttl. At most
// maxEntries lists are kept; the entry closest to expiry is evicted first.
func NewPageCache(ttl time.Duration, maxEntries int) *PageCache {
	if ttl <= 0 {
		ttl = defaultPageCacheTTL
	}

	if maxEntries <= 0 {
		maxEntries = defaultPageCacheMaxEntries
	}

	return &PageCache{
		items:      cache.New(ttl, pageCacheCleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get returns the cached list for key.
func (c *PageCache) Get(key string) ([]string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}

	pages, ok := v.([]string)

	return pages, ok
}

// Resolve returns the cached list for key or runs load once to fill it.
// Empty lists are returned but not stored.
func (c *PageCache) Resolve(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if pages, ok := c.Get(key); ok {
		observability.PageCacheLookups.WithLabelValues(cacheResultHit).Inc()

		return pages, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		pages, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if len(pages) > 0 {
			c.store(key, pages)
		}

		return pages, nil
	})

	result := cacheResultMiss
	if shared {
		result = cacheResultShared
	}

	observability.PageCacheLookups.WithLabelValues(result).Inc()

	if err != nil {
		return nil, err
	}

	pages, _ := v.([]string)

	return pages, nil
}

// Len reports the number of live entries.
func (c *PageCache) Len() int {
	return c.items.ItemCount()
}

func (c *PageCache) store(key string, pages []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items.Get(key); !ok && c.items.ItemCount() >= c.maxEntries {
		c.items.DeleteExpired()

		if c.items.ItemCount() >= c.maxEntries {
			c.evictOldest()
		}
	}

	c.items.SetDefault(key, pages)
	observability.PageCacheEntries.Set(float64(c.items.ItemCount()))
}

func (c *PageCache) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
	)

	for k, item := range c.items.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey = k
			oldestExp = item.Expiration
		}
	}

	if oldestKey != "" {
		c.items.Delete(oldestKey)
	}
}
