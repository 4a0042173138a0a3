// Package cache provides a small TTL-bounded LRU cache, used to avoid
// re-requesting AI descriptions for images already seen.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an LRU cache whose entries also expire after a fixed TTL.
// It is safe for concurrent use.
type Cache[V any] struct {
	lru *lru.Cache[string, entry[V]]
	ttl time.Duration
	now func() time.Time
}

// New builds a cache holding at most size entries, each valid for ttl.
func New[V any](size int, ttl time.Duration) (*Cache[V], error) {
	inner, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: inner, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached value for key, or a miss when the key is absent or
// its entry has expired. Expired entries are evicted on the way out.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key, valid for the cache's TTL from now.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Len returns the number of entries, including any not yet evicted but
// already expired.
func (c *Cache[V]) Len() int { return c.lru.Len() }

// Purge drops every entry.
func (c *Cache[V]) Purge() { c.lru.Purge() }
