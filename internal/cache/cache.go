package cache

// Cache is a generic reference-counted LRU cache with soft limit.
type Cache[K comparable, V any] struct {
	entries   map[K]*cacheEntry[V]
	softLimit int
	tick      int64 // Monotonic access counter
	onEvict   func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// cacheEntry holds a cached value with its access time and users.
type cacheEntry[V any] struct {
	value V
	atime int64 // Access time (tick value)
	refs  int
}

// New creates a new cache with the given soft limit.
// A softLimit of 0 means unlimited. onEvict, if not nil, is called for every
// value leaving the cache.
func New[K comparable, V any](softLimit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*cacheEntry[V]),
		softLimit: softLimit,
		onEvict:   onEvict,
	}
}

// Acquire returns the value cached for key, creating it if needed, and pins
// it until a matching Release. A failing create leaves the cache unchanged.
func (c *Cache[K, V]) Acquire(key K, create func() (V, error)) (V, error) {
	c.tick++
	if entry, ok := c.entries[key]; ok {
		c.hits++
		entry.atime = c.tick
		entry.refs++
		return entry.value, nil
	}

	c.misses++
	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = &cacheEntry[V]{value: value, atime: c.tick, refs: 1}
	c.evict()
	return value, nil
}

// Release unpins key. Unpinned values stay cached until evicted.
func (c *Cache[K, V]) Release(key K) {
	entry, ok := c.entries[key]
	if !ok || entry.refs == 0 {
		return
	}
	entry.refs--
	c.evict()
}

// Refs returns the number of users currently pinning key.
func (c *Cache[K, V]) Refs(key K) int {
	if entry, ok := c.entries[key]; ok {
		return entry.refs
	}
	return 0
}

// Clear evicts every entry, pinned or not.
func (c *Cache[K, V]) Clear() {
	for key, entry := range c.entries {
		c.drop(key, entry)
	}
	c.tick = 0
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache[K, V]) drop(key K, entry *cacheEntry[V]) {
	delete(c.entries, key)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(key, entry.value)
	}
}

// evict removes unpinned entries, oldest first, while over the soft limit.
func (c *Cache[K, V]) evict() {
	for c.softLimit > 0 && len(c.entries) > c.softLimit {
		var (
			oldestKey K
			oldest    *cacheEntry[V]
		)
		for key, e := range c.entries {
			if e.refs > 0 {
				continue
			}
			if oldest == nil || e.atime < oldest.atime {
				oldestKey, oldest = key, e
			}
		}
		if oldest == nil {
			return
		}
		c.drop(oldestKey, oldest)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the soft limit.
	Capacity int
	// Hits is the number of Acquire calls served from the cache.
	Hits uint64
	// Misses is the number of Acquire calls that created a value.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries dropped.
	Evictions uint64
}
