package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"secret-santa-service/domain"
)

const (
	shardCount = 64
)

type counterShard struct {
	lock    sync.Mutex
	entries map[string]domain.CounterEntry
}

// Counters is an in-memory fixed-window counter store.
// Check-and-increment is atomic per key; keys in different shards never contend.
type Counters struct {
	shards [shardCount]*counterShard
}

func NewCounters() *Counters {
	c := &Counters{}
	for i := range c.shards {
		c.shards[i] = &counterShard{entries: make(map[string]domain.CounterEntry)}
	}
	return c
}

func (c *Counters) Get(key string) (domain.CounterEntry, bool) {
	shard := c.shard(key)
	shard.lock.Lock()
	defer shard.lock.Unlock()

	entry, ok := shard.entries[key]
	return entry, ok
}

func (c *Counters) UpsertAndCheck(
	_ context.Context,
	key string,
	now time.Time,
	window time.Duration,
	max int,
) (bool, domain.CounterEntry, error) {
	shard := c.shard(key)
	shard.lock.Lock()
	defer shard.lock.Unlock()

	entry, ok := shard.entries[key]
	if !ok || entry.Expired(now) {
		entry = domain.CounterEntry{
			Key:     key,
			Count:   1,
			ResetAt: now.Add(window),
		}
		shard.entries[key] = entry
		return true, entry, nil
	}

	if entry.Count >= max {
		return false, entry, nil
	}

	entry.Count++
	shard.entries[key] = entry
	return true, entry, nil
}

// Sweep removes entries whose window is over, one shard at a time.
func (c *Counters) Sweep(now time.Time) int {
	removed := 0
	for _, shard := range c.shards {
		shard.lock.Lock()
		for key, entry := range shard.entries {
			if entry.Expired(now) {
				delete(shard.entries, key)
				removed++
			}
		}
		shard.lock.Unlock()
	}
	return removed
}

func (c *Counters) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.lock.Lock()
		total += len(shard.entries)
		shard.lock.Unlock()
	}
	return total
}

func (c *Counters) shard(key string) *counterShard {
	return c.shards[xxhash.Sum64String(key)%shardCount]
}
