package forecast

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// memCache is the L1 in-memory LRU for forecast collections.
//
// Keys combine location ID and the target hour. Safe for concurrent
// readers and writers; a single mutex is sufficient at the access
// rates this cache sees (one lookup per workflow node).
type memCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	entries  map[string]*list.Element

	// constrained is set under memory pressure: the cache refuses to
	// grow and halves itself (see Shrink).
	constrained bool

	hits   int64
	misses int64
}

type memEntry struct {
	key          string
	value        Collection
	insertedAt   time.Time
	expiresAt    time.Time
	lastAccessed time.Time
}

func cacheKey(locationID string, target time.Time) string {
	return fmt.Sprintf("%s@%s", locationID, target.UTC().Truncate(time.Hour).Format("2006010215"))
}

func newMemCache(capacity int, ttl time.Duration) *memCache {
	return &memCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the cached collection for key, refreshing its LRU
// position. Expired entries are removed and reported as misses.
func (c *memCache) Get(key string, now time.Time) (Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return Collection{}, false
	}
	ent := el.Value.(*memEntry)
	if !now.Before(ent.expiresAt) {
		c.removeLocked(el)
		c.misses++
		return Collection{}, false
	}
	ent.lastAccessed = now
	c.order.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// Put inserts or replaces the entry for key. Under memory pressure
// only replacements of existing keys are accepted.
func (c *memCache) Put(key string, value Collection, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*memEntry)
		ent.value = value
		ent.insertedAt = now
		ent.expiresAt = now.Add(c.ttl)
		ent.lastAccessed = now
		c.order.MoveToFront(el)
		return
	}
	if c.constrained && c.order.Len() >= c.capacity/2 {
		return
	}
	for c.order.Len() >= c.capacity {
		c.removeLocked(c.order.Back())
	}
	ent := &memEntry{
		key:          key,
		value:        value,
		insertedAt:   now,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
	c.entries[key] = c.order.PushFront(ent)
}

// Shrink evicts the least-recently-used half of the cache and flags
// the cache as constrained until Relax is called. Invoked by the
// memory-pressure monitor.
func (c *memCache) Shrink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.constrained = true
	target := c.order.Len() / 2
	for c.order.Len() > target {
		c.removeLocked(c.order.Back())
	}
}

// Relax clears the memory-pressure constraint.
func (c *memCache) Relax() {
	c.mu.Lock()
	c.constrained = false
	c.mu.Unlock()
}

// Len reports the current entry count.
func (c *memCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cumulative hit and miss counts.
func (c *memCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *memCache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	ent := el.Value.(*memEntry)
	delete(c.entries, ent.key)
	c.order.Remove(el)
}
