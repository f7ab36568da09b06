package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ExpiringCache is a bounded, thread-safe LRU with a sliding TTL. The
// eviction callback runs for capacity evictions, expiry and Remove.
type ExpiringCache[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewExpiringCache creates a cache holding at most size entries that expire
// ttl after their last access.
func NewExpiringCache[V any](size int, ttl time.Duration, onEvict func(key string, value V)) *ExpiringCache[V] {
	return &ExpiringCache[V]{lru: expirable.NewLRU[string, V](size, onEvict, ttl)}
}

// Get returns the entry for key and refreshes its expiry.
func (c *ExpiringCache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		// Re-adding an existing key only moves its deadline.
		c.lru.Add(key, v)
	}
	return v, ok
}

// Add stores value under key.
func (c *ExpiringCache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// Remove evicts key, running the eviction callback.
func (c *ExpiringCache[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries.
func (c *ExpiringCache[V]) Len() int {
	return c.lru.Len()
}

// Purge evicts every entry.
func (c *ExpiringCache[V]) Purge() {
	c.lru.Purge()
}
