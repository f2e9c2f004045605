package fx

import (
	"sync"
	"time"
)

// rateCache keeps fetched rate tables per base currency for a bounded TTL.
// Contention is negligible at pipeline concurrency levels, so a plain mutex
// over a map is enough.
type rateCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	table   *RateTable
	fetched time.Time
}

func newRateCache(ttl time.Duration, now func() time.Time) *rateCache {
	if now == nil {
		now = time.Now
	}
	return &rateCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns a live table for base, evicting it if the TTL elapsed.
func (c *rateCache) get(base string) (*RateTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[base]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetched) > c.ttl {
		delete(c.entries, base)
		return nil, false
	}
	return e.table, true
}

func (c *rateCache) put(base string, table *RateTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[base] = cacheEntry{table: table, fetched: c.now()}
}
