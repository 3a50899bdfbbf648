package service

import (
	"sync"
	"time"
)

// CacheKind separates the evaluator outputs sharing one cache
type CacheKind string

const (
	CacheKindRules     CacheKind = "rules"
	CacheKindNarrative CacheKind = "narrative"
)

// CacheKey addresses one evaluator output by section and content fingerprint
type CacheKey struct {
	Kind          CacheKind
	SectionNumber int
	Fingerprint   string
}

// cacheEntry holds a cached value with its insertion time
type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

// ContentCache is a bounded, TTL-limited cache of evaluator outputs keyed
// by (section, content fingerprint). It is a pure performance layer: a hit
// must be semantically indistinguishable from a fresh evaluator call, and
// its absence changes latency only, never outcomes. Last-write-wins on a
// key is fine since values for a fixed key are idempotent.
type ContentCache struct {
	mu         sync.Mutex
	entries    map[CacheKey]cacheEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits   int64
	misses int64
}

// ContentCacheConfig holds cache policy knobs
type ContentCacheConfig struct {
	MaxEntries int           // entry cap; oldest entries are evicted on insert
	TTL        time.Duration // entry lifetime; zero disables expiry
}

// DefaultContentCacheConfig returns the default cache policy
func DefaultContentCacheConfig() ContentCacheConfig {
	return ContentCacheConfig{
		MaxEntries: 256,
		TTL:        time.Hour,
	}
}

// NewContentCache creates a cache with the given policy
func NewContentCache(config ContentCacheConfig) *ContentCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultContentCacheConfig().MaxEntries
	}
	return &ContentCache{
		entries:    make(map[CacheKey]cacheEntry),
		maxEntries: config.MaxEntries,
		ttl:        config.TTL,
		now:        time.Now,
	}
}

// Get returns the cached value for the key, if present and fresh
func (c *ContentCache) Get(key CacheKey) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.value, true
}

// Put stores a value for the key, evicting the oldest entry when full
func (c *ContentCache) Put(key CacheKey, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

// Len returns the number of cached entries
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters
func (c *ContentCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evictOldestLocked removes the entry with the oldest insertion time.
// Caller must hold the mutex.
func (c *ContentCache) evictOldestLocked() {
	var oldestKey CacheKey
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
