package fetch

import (
	"sync"
	"time"

	"github.com/openfolio/pulse/internal/core"
)

// DefaultTTL matches the dashboard's refresh cadence: end-of-day data
// does not change minute to minute.
const DefaultTTL = 15 * time.Minute

// Cache is a TTL cache of fetched series keyed by symbol and period.
// A single mutex guards the check-then-set sequence, so readers never
// observe a partially written entry. Expiry is purely wall-clock based.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	series    *core.Series
	expiresAt time.Time
}

// NewCache creates a cache. A non-positive TTL falls back to DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Key builds the cache key for a normalized symbol and period.
func Key(symbol string, period core.Period) string {
	return symbol + "|" + period.Key
}

// Get returns the unexpired series for the key, if any. Expired entries
// are evicted on access.
func (c *Cache) Get(key string) (*core.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.series, true
}

// Put stores a series under the key with a fresh TTL. Callers only put
// fully normalized, non-empty series; the cache does not second-guess.
func (c *Cache) Put(key string, series *core.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		series:    series,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
