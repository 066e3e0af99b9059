// Package cache provides the reference-counted LRU cache used to share GPU
// objects, such as shader modules, between the nodes that need them.
//
// Entries acquired by a user are pinned until released. Unpinned entries stay
// cached and are evicted, oldest first, once the cache grows past its soft
// limit; the eviction callback destroys the underlying object.
//
//	c := cache.New[string, hal.ShaderModule](64, func(_ string, m hal.ShaderModule) {
//	    device.DestroyShaderModule(m)
//	})
//	m, err := c.Acquire(src, compile)
//	...
//	c.Release(src)
//
// # Thread Safety
//
// Cache is NOT safe for concurrent use. It is owned by the worker goroutine
// together with the GPU device it caches objects for.
package cache
