package software

import (
	"cmp"
	"slices"
)

// cache is an LRU cache with a soft limit. When it grows past the limit the
// least recently used quarter is evicted.
//
// A cache belongs to one Rasterizer and is not safe for concurrent use.
type cache[K comparable, V any] struct {
	entries   map[K]*cacheEntry[V]
	softLimit int
	tick      int64 // monotonic access counter
}

type cacheEntry[V any] struct {
	value V
	atime int64
}

// newCache creates a cache. A softLimit of 0 means unlimited.
func newCache[K comparable, V any](softLimit int) *cache[K, V] {
	return &cache[K, V]{
		entries:   make(map[K]*cacheEntry[V]),
		softLimit: softLimit,
	}
}

// get returns the cached value for key.
func (c *cache[K, V]) get(key K) (V, bool) {
	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	entry.atime = c.tick
	return entry.value, true
}

// set stores value under key, evicting old entries past the soft limit.
func (c *cache[K, V]) set(key K, value V) {
	c.tick++
	c.entries[key] = &cacheEntry[V]{value: value, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// clear removes all entries.
func (c *cache[K, V]) clear() {
	clear(c.entries)
	c.tick = 0
}

// len returns the number of entries.
func (c *cache[K, V]) len() int {
	return len(c.entries)
}

// evictOldest removes the least recently used entries until the cache holds
// three quarters of its soft limit.
func (c *cache[K, V]) evictOldest() {
	target := max(c.softLimit*3/4, 1)
	toEvict := len(c.entries) - target
	if toEvict <= 0 {
		return
	}

	type aged struct {
		key   K
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, aged{key: key, atime: e.atime})
	}
	slices.SortFunc(all, func(a, b aged) int { return cmp.Compare(a.atime, b.atime) })

	for _, a := range all[:toEvict] {
		delete(c.entries, a.key)
	}
}
