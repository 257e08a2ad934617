// Package cache provides a thread-safe LRU cache of parsed expressions.
//
// Template documents repeat the same expressions many times, and an editor
// re-checks them on every keystroke. Parsing is pure, so a parsed
// expression can be shared by every caller that sees the same source text.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrParse("item.price * count", parser.Parse)
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

type entry struct {
	source string
	expr   *types.Expression
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is an LRU cache of parsed expressions keyed by source text.
// Once the capacity is reached, the least recently used entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits, misses, evictions atomic.Uint64

	// OnLookup, when set, is called after every Get with the outcome.
	// It must be set before the cache is shared.
	OnLookup func(hit bool)
}

// New creates a cache holding up to capacity expressions.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached expression for source and marks it most recently
// used.
func (c *Cache) Get(source string) (*types.Expression, bool) {
	expr, ok := c.get(source)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.OnLookup != nil {
		c.OnLookup(ok)
	}
	return expr, ok
}

func (c *Cache) get(source string) (*types.Expression, bool) {
	c.mu.RLock()
	el, ok := c.items[source]
	var expr *types.Expression
	if ok {
		expr = el.Value.(*entry).expr
	}
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok || alreadyFront {
		return expr, ok
	}

	// Promote under the write lock; the entry may have been replaced or
	// evicted in between.
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok = c.items[source]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).expr, true
}

// Set stores expr under its source text, evicting the least recently used
// entry when full.
func (c *Cache) Set(expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	source := expr.Source()
	if el, ok := c.items[source]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	c.items[source] = c.ll.PushFront(&entry{source: source, expr: expr})
}

// GetOrParse returns the cached expression for source, or parses and caches
// it. Parse failures are not cached.
func (c *Cache) GetOrParse(source string, parse func(string) (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(source); ok {
		return expr, nil
	}
	expr, err := parse(source)
	if err != nil {
		return nil, err
	}
	c.Set(expr)
	return expr, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit, miss and eviction counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Invalidate removes the entry for source.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[source]; ok {
		c.ll.Remove(el)
		delete(c.items, source)
	}
}

// Clear removes all entries. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).source)
	c.evictions.Add(1)
}
