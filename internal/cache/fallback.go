// Package cache holds the last-known-good quote caches shared by every
// resolution and aggregation task.
package cache

import (
	"sync"
	"sync/atomic"
)

// FallbackCache maps a key to the last value a successful fetch produced.
// Every lookup goes to the remote source first; the stored value is only
// served when that fetch fails. Entries are never evicted.
type FallbackCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V

	fresh    atomic.Int64
	fallback atomic.Int64
	misses   atomic.Int64
}

// Stats counts how lookups were answered
type Stats struct {
	Entries  int   `json:"entries"`
	Fresh    int64 `json:"fresh"`
	Fallback int64 `json:"fallback"`
	Misses   int64 `json:"misses"`
}

// New creates an empty cache
func New[K comparable, V any]() *FallbackCache[K, V] {
	return &FallbackCache[K, V]{entries: make(map[K]V)}
}

// GetOrFetch calls fetch and stores its result. When fetch fails, the
// previously stored value is returned as a success if there is one;
// otherwise the fetch error is returned unchanged.
func (c *FallbackCache[K, V]) GetOrFetch(key K, fetch func() (V, error)) (V, error) {
	v, _, err := c.GetOrFetchStale(key, fetch)
	return v, err
}

// GetOrFetchStale is GetOrFetch that also reports whether the value came
// from the cache after a failed fetch.
func (c *FallbackCache[K, V]) GetOrFetchStale(key K, fetch func() (V, error)) (V, bool, error) {
	v, err := fetch()
	if err == nil {
		c.Set(key, v)
		c.fresh.Add(1)
		return v, false, nil
	}

	if prev, ok := c.Get(key); ok {
		c.fallback.Add(1)
		return prev, true, nil
	}

	c.misses.Add(1)
	var zero V
	return zero, false, err
}

// Get returns the stored value without fetching
func (c *FallbackCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value
func (c *FallbackCache[K, V]) Set(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// Len returns the number of stored keys
func (c *FallbackCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the lookup counters
func (c *FallbackCache[K, V]) Stats() Stats {
	return Stats{
		Entries:  c.Len(),
		Fresh:    c.fresh.Load(),
		Fallback: c.fallback.Load(),
		Misses:   c.misses.Load(),
	}
}
