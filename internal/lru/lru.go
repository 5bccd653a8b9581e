// Package lru implements the bounded key→value cache used by the completion
// session cache and the semantic-highlight stable-id cache:
// fixed capacity, access-order eviction, insert-or-compute. Thread-safety
// is the caller's responsibility: callers that need concurrent access
// (both of ours do) wrap a Cache in their own mutex rather than have this
// package impose one, so a single lock can cover a read-then-mutate
// sequence.
package lru

import "container/list"

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a fixed-capacity LRU map. The zero value is not usable; use New.
type Cache[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List
}

// New creates a Cache bounded to capacity entries (minimum 1).
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int { return c.order.Len() }

// Insert adds or replaces key's value. If key is present it is touched
// (moved to front); otherwise it is pushed to front and, if the cache is
// now over capacity, the least-recently-used entry is evicted. Insert
// returns the evicted key and true if an eviction occurred.
func (c *Cache[K, V]) Insert(key K, value V) (evicted K, didEvict bool) {
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return evicted, false
	}
	elem := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = elem
	if c.order.Len() > c.capacity {
		back := c.order.Back()
		c.order.Remove(back)
		ev := back.Value.(*entry[K, V])
		delete(c.items, ev.key)
		return ev.key, true
	}
	return evicted, false
}

// TryGet returns the value without changing order.
func (c *Cache[K, V]) TryGet(key K) (V, bool) {
	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return elem.Value.(*entry[K, V]).value, true
}

// GetPromote returns the value and promotes it to most-recently-used, the
// policy the completion cache uses ("promote on hit").
func (c *Cache[K, V]) GetPromote(key K) (V, bool) {
	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// GetOrCreate returns the existing (promoted) entry for key, or computes it
// via make, inserts it, and returns it. The evicted key (if any) is
// returned so callers can release resources tied to the evicted value.
func (c *Cache[K, V]) GetOrCreate(key K, make_ func() V) (value V, evictedKey K, didEvict bool) {
	if v, ok := c.GetPromote(key); ok {
		return v, evictedKey, false
	}
	v := make_()
	evictedKey, didEvict = c.Insert(key, v)
	return v, evictedKey, didEvict
}

// Remove deletes key if present, reporting whether it was found.
func (c *Cache[K, V]) Remove(key K) bool {
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

// Iterate visits every value; order is unspecified (front-to-back of the
// access list, but callers must not rely on that).
func (c *Cache[K, V]) Iterate(f func(key K, value V)) {
	for e := c.order.Front(); e != nil; e = e.Next() {
		en := e.Value.(*entry[K, V])
		f(en.key, en.value)
	}
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.items = make(map[K]*list.Element)
	c.order = list.New()
}
