package orbix

import (
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores operation results for reuse within a TTL. Implementations
// must be safe for concurrent use. Only idempotent reads route through
// the cache; which operations are cache-eligible is decided by the
// orchestrator, not the cache.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Clear()
	Len() int
}

// CacheKey builds a canonical key from the method, resolved URL and
// query parameters. Parameters are sorted so two semantically identical
// requests produce identical keys regardless of the order the caller
// supplied them in.
func CacheKey(method, url string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(url)

	if len(params) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// LRUCache is the default Cache: a fixed-capacity LRU with a uniform
// per-entry TTL. An expired entry is treated as a miss and removed on
// access; capacity overflow evicts the least-recently-used entry.
type LRUCache struct {
	entries *lru.Cache[string, *cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewLRUCache creates a cache holding at most capacity entries, each
// valid for ttl after insertion.
func NewLRUCache(capacity int, ttl time.Duration) (*LRUCache, error) {
	entries, err := lru.New[string, *cacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// Get returns the value for key, moving it to most-recently-used.
// Expired entries are removed and reported as misses.
func (c *LRUCache) Get(key string) (any, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key, evicting the least-recently-used entry if
// the cache is full.
func (c *LRUCache) Set(key string, value any) {
	c.entries.Add(key, &cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Delete removes key if present.
func (c *LRUCache) Delete(key string) {
	c.entries.Remove(key)
}

// Clear removes all entries.
func (c *LRUCache) Clear() {
	c.entries.Purge()
}

// Len returns the number of stored entries, counting entries that have
// expired but not yet been removed.
func (c *LRUCache) Len() int {
	return c.entries.Len()
}
