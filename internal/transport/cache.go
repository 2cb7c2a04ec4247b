package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// CacheEntry is a memoized successful response.
type CacheEntry struct {
	Body     []byte
	StoredAt time.Time
}

// ResponseCache memoizes successful idempotent reads for a bounded lifetime.
//
// Eviction is lazy: an expired entry is deleted on the next Get, there is no
// background sweep. The cache is unbounded — no maximum size and no LRU —
// which long-running processes should be aware of. Two concurrent callers
// racing on the same key can both miss and both populate; last write wins,
// which is harmless for idempotent GETs.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
}

// NewResponseCache creates a cache with the given TTL. A zero or negative
// TTL defaults to 5 minutes.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
	}
}

// Get returns the cached body for key, or false if absent or expired.
// Expired entries are deleted on the way out.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.store[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.StoredAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if current, ok := c.store[key]; ok && time.Since(current.StoredAt) >= c.ttl {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.Body, true
}

// Set stores value under key, unconditionally overwriting.
func (c *ResponseCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Body:     value,
		StoredAt: time.Now(),
	}
}

// Clear drops all entries. Used for test isolation.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Len returns the number of stored entries, expired ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.store)
}

// CacheKey builds a stable key from the parts that identify a logical call:
// method, path, encoded query and body.
func CacheKey(method, path, query string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
