package cache

import (
	"container/list"
	"sync"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a thread-safe least-recently-used index.
// A capacity <= 0 means unbounded. Values reported as pinned are never evicted;
// while pinned entries hold the index over capacity, Trim restores the bound
// once they are released.
type LRU[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	mu       sync.Mutex
	onEvict  func(key K, value V)
	pinned   func(value V) bool
}

// Option configures an LRU.
type Option[K comparable, V any] func(*LRU[K, V])

// WithEvictCallback registers fn for capacity evictions. It runs with the
// index lock held and must not call back into the LRU.
func WithEvictCallback[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) { c.onEvict = fn }
}

// WithPinned registers a predicate that protects values from eviction.
func WithPinned[K comparable, V any](fn func(value V) bool) Option[K, V] {
	return func(c *LRU[K, V]) { c.pinned = fn }
}

// NewLRU creates an LRU holding up to capacity entries; capacity <= 0 means unbounded.
func NewLRU[K comparable, V any](capacity int, opts ...Option[K, V]) *LRU[K, V] {
	c := &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Peek returns the value for key without changing its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		return elem.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or replaces key, marks it recently used and applies the capacity.
// It returns the number of evicted entries.
func (c *LRU[K, V]) Put(key K, value V) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return 0
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	return c.trim()
}

// Trim evicts unpinned entries until the index fits its capacity.
func (c *LRU[K, V]) Trim() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trim()
}

// Remove deletes key without calling the evict callback.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
		return elem.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Range calls fn for a snapshot of entries, most recently used first,
// until fn returns false. fn may modify the LRU.
func (c *LRU[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	snapshot := make([]lruEntry[K, V], 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		snapshot = append(snapshot, *elem.Value.(*lruEntry[K, V]))
	}
	c.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every entry without calling the evict callback.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Must be called with lock held.
func (c *LRU[K, V]) trim() int {
	if c.capacity <= 0 {
		return 0
	}

	evicted := 0
	elem := c.order.Back()
	for c.order.Len() > c.capacity && elem != nil {
		prev := elem.Prev()
		entry := elem.Value.(*lruEntry[K, V])
		if c.pinned == nil || !c.pinned(entry.value) {
			c.order.Remove(elem)
			delete(c.items, entry.key)
			if c.onEvict != nil {
				c.onEvict(entry.key, entry.value)
			}
			evicted++
		}
		elem = prev
	}
	return evicted
}
