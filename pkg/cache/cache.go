package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injectable so tests can control expiry
// without sleeping.
type Clock func() time.Time

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a process-local TTL cache for response envelopes. Entries expire
// passively: an expired entry is removed the next time it is looked up.
// When the entry count reaches maxEntries, the entry closest to expiry is
// evicted to make room.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	clock      Clock
}

// New creates a cache bounded to maxEntries. A nil clock defaults to
// time.Now.
func New(maxEntries int, clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Get returns the value stored under key, or false if the key is absent or
// the entry has reached its expiry.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !c.clock().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have replaced the entry with a
		// fresh one between the read unlock and here.
		if cur, ok := c.entries[key]; ok && !c.clock().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl, unconditionally overwriting any
// existing entry.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictClosest()
	}

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.clock().Add(ttl),
	}
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len reports the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// evictClosest removes the entry with the nearest expiry. Caller must hold
// the write lock.
func (c *Cache) evictClosest() {
	var victim string
	var closest time.Time

	for key, e := range c.entries {
		if closest.IsZero() || e.expiresAt.Before(closest) {
			victim = key
			closest = e.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
