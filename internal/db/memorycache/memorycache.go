// Package memorycache implements the key-value cache interface with a
// process-local map. It honors per-key TTL by checking expiry lazily on
// read. It serves development runs without Redis and the unit tests.
package memorycache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-memory TTL cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is swappable in tests to simulate TTL expiry.
	now func() time.Time
}

func New() *MemoryCache {
	return &MemoryCache{
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// Get returns the value at key if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	item, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		return "", false, nil
	}

	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return "", false, nil
	}

	return item.value, true, nil
}

// Set stores value at key, overwriting any prior value and resetting the TTL.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

// Delete removes the key. Absent keys are ignored.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

func (c *MemoryCache) Ping(_ context.Context) error {
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

// SetClock replaces the cache's time source. Tests use it to move time
// past entry expiries without sleeping.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}
