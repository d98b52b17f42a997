// Package credentials implements identity-scoped resolution of database
// credentials: a stored secret fetched through an assumed role, or an IAM
// authentication token generated by a role that carries the caller's
// principal tags as session tags. Both resolvers share a bounded, TTL-based
// in-memory cache keyed by resource and caller identity.
package credentials

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/systmms/dbmux/pkg/identity"
)

const (
	// maxCacheEntries bounds the number of live cache entries per resolver.
	maxCacheEntries = 100

	// maxCacheAge is how long a cached credential stays servable. It also
	// bounds the lifetime of generated tokens in the cache: a token's own
	// validity window is longer, but it is never served past this age.
	maxCacheAge = 60 * time.Second
)

// cacheEntry is replaced wholesale on refresh, never mutated in place.
type cacheEntry struct {
	value     string
	createdAt time.Time
}

// identityCache is a bounded in-memory cache keyed by resource + caller
// identity. Expired entries are collected lazily, on the next insertion; if
// an insertion finds the cache full and nothing expired, the oldest entry by
// insertion order is dropped. Reads do not refresh position, so this is not
// an LRU.
//
// One mutex guards every operation whole: the eviction scan walks the entire
// collection, so finer locking buys nothing. Fetches on a miss happen outside
// the lock; two racing misses both fetch and the later put wins.
type identityCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string

	resolver string           // metrics label
	now      func() time.Time // swapped in tests
}

func newIdentityCache(resolver string) *identityCache {
	return &identityCache{
		entries:  make(map[string]cacheEntry),
		resolver: resolver,
		now:      time.Now,
	}
}

// get returns the cached value for key if present and fresh. A stale entry is
// reported as a miss and left in place for the next insertion's eviction scan.
func (c *identityCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.createdAt) > maxCacheAge {
		recordCacheMiss(c.resolver)
		return "", false
	}

	recordCacheHit(c.resolver)
	return entry.value, true
}

// put inserts value under key, running the eviction pass first: every expired
// entry is removed; if none were and the cache is full, exactly the oldest
// entry by insertion order is removed. Overwriting an existing key counts as
// a fresh insertion and moves the key to the back of the order.
func (c *identityCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	force := len(c.entries) >= maxCacheEntries
	c.evict(force)

	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	}
	c.entries[key] = cacheEntry{value: value, createdAt: c.now()}
	c.order = append(c.order, key)
}

// evict must be called with the lock held.
func (c *identityCache) evict(force bool) {
	now := c.now()
	removed := 0

	kept := c.order[:0]
	for _, key := range c.order {
		if now.Sub(c.entries[key].createdAt) > maxCacheAge {
			delete(c.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	recordEvictions(c.resolver, evictExpired, removed)

	if removed == 0 && force && len(c.order) > 0 {
		// Nothing expired; drop the oldest insertion to make room.
		oldest := c.order[0]
		delete(c.entries, oldest)
		c.order = c.order[1:]
		recordEvictions(c.resolver, evictCapacity, 1)
	}
}

func (c *identityCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// size reports the number of live entries, expired or not.
func (c *identityCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// seed inserts an entry with an explicit creation time, bypassing eviction.
// Test hook; mirrors put's order maintenance so eviction order stays correct.
func (c *identityCache) seed(key, value string, createdAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	}
	c.entries[key] = cacheEntry{value: value, createdAt: createdAt}
	c.order = append(c.order, key)
}

// cacheKey builds a deterministic key from the resource components and the
// caller identity. Each component is length-prefixed so that distinct
// component sequences can never collide by boundary shifting (unlike plain
// concatenation, where "ab"+"c" equals "a"+"bc"). Tag order is preserved:
// callers presenting the same tags in a different order are distinct.
func cacheKey(resource []string, caller identity.Caller) string {
	var b strings.Builder
	for _, part := range resource {
		writeKeyPart(&b, part)
	}
	writeKeyPart(&b, caller.ARN)
	for _, tag := range caller.Tags {
		writeKeyPart(&b, tag.Key)
		writeKeyPart(&b, tag.Value)
	}
	return b.String()
}

func writeKeyPart(b *strings.Builder, part string) {
	b.WriteString(strconv.Itoa(len(part)))
	b.WriteByte(':')
	b.WriteString(part)
	b.WriteByte(';')
}
