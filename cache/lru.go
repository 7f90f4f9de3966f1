package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// LRUBlockCache implements a simple LRU BlockCache.
type LRUBlockCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[CacheKey]*list.Element
	evictList *list.List
	budget    MemoryBudget

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   CacheKey
	value []byte
}

// NewLRUBlockCache creates a new LRU cache with the given capacity in bytes.
// If budget is non-nil, every cached byte is also reserved from it.
func NewLRUBlockCache(capacity int64, budget MemoryBudget) *LRUBlockCache {
	return &LRUBlockCache{
		capacity:  capacity,
		items:     make(map[CacheKey]*list.Element),
		evictList: list.New(),
		budget:    budget,
	}
}

// Get returns a cached block.
func (c *LRUBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the capacity, or that the shared
// budget refuses, are not cached.
func (c *LRUBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemSize := int64(len(b))
	if itemSize > c.capacity {
		return
	}

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry)
		oldSize := int64(len(e.value))
		if itemSize > oldSize && !c.acquire(itemSize-oldSize) {
			return
		}
		if itemSize < oldSize {
			c.release(oldSize - itemSize)
		}
		c.size += itemSize - oldSize
		e.value = b
		c.evict()
		return
	}

	// Make room locally first; evictions hand bytes back to the budget.
	for c.size+itemSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if !c.acquire(itemSize) {
		return
	}

	element := c.evictList.PushFront(&entry{key, b})
	c.items[key] = element
	c.size += itemSize
}

// Invalidate removes entries matching the predicate.
func (c *LRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, element := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, element)
		}
	}

	for _, e := range toRemove {
		c.removeElement(e)
	}
}

// Close drops every entry and returns its bytes to the budget.
func (c *LRUBlockCache) Close() error {
	c.Invalidate(func(CacheKey) bool { return true })
	return nil
}

// Stats returns hit/miss counters.
func (c *LRUBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (c *LRUBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blocks.
func (c *LRUBlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUBlockCache) evict() {
	for c.size > c.capacity {
		element := c.evictList.Back()
		if element == nil {
			break
		}
		c.removeElement(element)
	}
}

func (c *LRUBlockCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	itemSize := int64(len(kv.value))
	c.size -= itemSize
	c.release(itemSize)
}

func (c *LRUBlockCache) acquire(n int64) bool {
	if c.budget == nil {
		return true
	}
	return c.budget.TryAcquireMemory(n)
}

func (c *LRUBlockCache) release(n int64) {
	if c.budget != nil {
		c.budget.ReleaseMemory(n)
	}
}
