package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache stores generated text keyed by request fingerprints.
// Misses and backend failures look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Purge(ctx context.Context)
}

type entry struct {
	key     string
	value   string
	expires time.Time
	element *list.Element
}

type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*entry
	order    *list.List
	now      func() time.Time
}

// NewLRU creates an in-process LRU cache with capacity and default TTL.
func NewLRU(capacity int, ttl time.Duration) Cache {
	return newLRU(capacity, ttl, time.Now)
}

func newLRU(capacity int, ttl time.Duration, now func() time.Time) *lruCache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry, capacity),
		order:    list.New(),
		now:      now,
	}
}

func (c *lruCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		if c.now().Before(ent.expires) {
			c.order.MoveToFront(ent.element)
			return ent.value, true
		}
		c.removeEntry(ent)
	}
	return "", false
}

func (c *lruCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	if ent, ok := c.items[key]; ok {
		ent.value = value
		ent.expires = c.now().Add(ttl)
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushFront(key)
	c.items[key] = &entry{
		key:     key,
		value:   value,
		expires: c.now().Add(ttl),
		element: elem,
	}
}

func (c *lruCache) Purge(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry, c.capacity)
	c.order.Init()
}

func (c *lruCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	if ent, ok := c.items[elem.Value.(string)]; ok {
		c.removeEntry(ent)
	}
}

func (c *lruCache) removeEntry(ent *entry) {
	c.order.Remove(ent.element)
	delete(c.items, ent.key)
}
