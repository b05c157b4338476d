package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Column is a typed per-column cache. It is backed by hashicorp/golang-lru
// for its own bounded-count eviction (keeps a single column from growing
// unreasonably between CollectGarbage sweeps); the Manager above layers a
// byte-budget eviction policy across all columns on top of it.
type Column[K comparable, V any] struct {
	lru *lru.Cache[K, V]
}

// NewColumn builds a column cache with a soft per-column entry cap; size,
// not count, is what the Manager's CollectGarbage ultimately enforces.
func NewColumn[K comparable, V any](softCap int) *Column[K, V] {
	if softCap <= 0 {
		softCap = 1
	}
	c, err := lru.New[K, V](softCap)
	if err != nil {
		// Only returns an error for a non-positive size, excluded above.
		panic(err)
	}
	return &Column[K, V]{lru: c}
}

func (c *Column[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Put installs or overwrites key per policy. Policy is Remove to evict the
// entry instead (used by delete_with_cache).
func (c *Column[K, V]) Put(key K, value V, policy Policy) {
	if policy == Remove {
		c.lru.Remove(key)
		return
	}
	c.lru.Add(key, value)
}

func (c *Column[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

func (c *Column[K, V]) Len() int {
	return c.lru.Len()
}

// Purge evicts every entry for the given keys; keys that are not present
// are ignored. Used as part of a Manager Evictor.
func (c *Column[K, V]) Purge(keys []K) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Policy controls what write_with_cache / delete_with_cache do to the
// in-memory cache entry alongside the durable write.
type Policy int

const (
	Overwrite Policy = iota
	Remove
)
