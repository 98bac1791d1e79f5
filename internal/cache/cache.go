package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a process-local key/value cache with a fixed time-to-live.
// Entries are never invalidated on write elsewhere; they simply expire.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

// NewTTL creates a cache. A nil clock uses time.Now.
func NewTTL[V any](ttl time.Duration, clock func() time.Time) *TTL[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTL[V]{ttl: ttl, entries: make(map[string]entry[V]), now: clock}
}

// Get returns the cached value for key if it has not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Fetch is a read-through lookup: on a miss it calls load and caches a
// successful result. Errors are not cached. The hit flag reports a cache hit.
func (c *TTL[V]) Fetch(key string, load func() (V, error)) (value V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := load()
	if err != nil {
		return v, false, err
	}
	c.Set(key, v)
	return v, false, nil
}
