package cache

import (
	"sync"

	"github.com/bananalabs-oss/clans/internal/metrics"
)

// EntityCache is an unbounded in-memory map for one record kind. It never
// touches storage; its owner decides whether a miss falls through.
type EntityCache[K comparable, V any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[K]V
}

// New returns an empty cache whose size is reported under kind.
func New[K comparable, V any](kind string) *EntityCache[K, V] {
	return &EntityCache[K, V]{
		kind:    kind,
		entries: make(map[K]V),
	}
}

func (c *EntityCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *EntityCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.report()
}

// Remove deletes key and reports whether it was present.
func (c *EntityCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.report()
	return ok
}

// RemoveFunc deletes every entry for which match returns true and returns the removed values.
func (c *EntityCache[K, V]) RemoveFunc(match func(K, V) bool) []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []V
	for k, v := range c.entries {
		if match(k, v) {
			removed = append(removed, v)
			delete(c.entries, k)
		}
	}
	c.report()
	return removed
}

// Load replaces the cache contents with entries.
func (c *EntityCache[K, V]) Load(entries map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V, len(entries))
	for k, v := range entries {
		c.entries[k] = v
	}
	c.report()
}

// Values returns a snapshot of every cached value in no particular order.
func (c *EntityCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, len(c.entries))
	for _, v := range c.entries {
		out = append(out, v)
	}
	return out
}

// Find returns the first value for which match returns true.
func (c *EntityCache[K, V]) Find(match func(K, V) bool) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.entries {
		if match(k, v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (c *EntityCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *EntityCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V)
	c.report()
}

// report must be called with mu held.
func (c *EntityCache[K, V]) report() {
	metrics.CacheEntries.WithLabelValues(c.kind).Set(float64(len(c.entries)))
}
