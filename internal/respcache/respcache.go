// Package respcache is a small in-memory cache for model responses,
// keyed on the exact question context so a repeated query skips the
// provider round trip.
package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Cache holds up to a fixed number of entries, each expiring after a
// TTL. Expiry is lazy on read; when the cache is full the entry with
// the oldest insertion time is evicted to make room.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	max     int
	ttl     time.Duration
	now     func() time.Time
}

type entry[V any] struct {
	value    V
	inserted time.Time
}

// New creates a cache with the given capacity and TTL.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		max:     maxEntries,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key, expiring it first if it has
// outlived the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.inserted) > c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a value, evicting the oldest entry when at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.evictOldest()
	}
	c.entries[key] = &entry[V]{value: value, inserted: c.now()}
}

// Len reports the number of entries, including any not yet lazily
// expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.inserted.Before(oldest) {
			oldestKey, oldest = k, e.inserted
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Key derives a stable cache key from the response context: session,
// model, the normalized query, and the transcript fingerprint.
func Key(sessionID, modelID, query, transcriptFingerprint string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")

	h := sha256.New()
	for _, part := range []string{sessionID, modelID, normalized, transcriptFingerprint} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
