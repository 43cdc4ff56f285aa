package cache

import (
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

type Option func(c *Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache keeps serialized values until their lifetime ends.
type Cache struct {
	entries map[string]entry
	lock    *sync.RWMutex
	now     func() time.Time
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: map[string]entry{},
		lock:    &sync.RWMutex{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	value, ok := c.entries[key]
	if !ok || value.expired(c.now()) {
		return nil, false
	}
	return value.data, true
}

func (c *Cache) Set(key string, data []byte, lifetime time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.entries[key] = entry{
		data:      data,
		expiresAt: c.now().Add(lifetime),
	}
}

func (c *Cache) Delete(key string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.entries, key)
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.now()
	removed := 0
	for key, value := range c.entries {
		if value.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.entries)
}
