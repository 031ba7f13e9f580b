// Package lru implements a generic, thread-safe LRU cache with optional
// per-entry expiry. The session manager keeps live conversations in it.
//
// Get, Put, Delete and Len are O(1). Expired entries are dropped lazily on
// access or eagerly by Sweep.
package lru

import (
	"sync"
	"time"
)

type node[K comparable, V any] struct {
	key     K
	val     V
	expires time.Time // zero means no expiry
	prev    *node[K, V]
	next    *node[K, V]
}

// Metrics is a point-in-time view of cache activity.
type Metrics struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookups.
func (m Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets the default lifetime applied by Put.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) { c.ttl = ttl }
}

// WithOnEvict registers a callback for entries removed by capacity pressure
// or expiry. Explicit Delete and Clear do not trigger it. The callback runs
// after the cache lock is released.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// Cache is a generic, thread-safe LRU cache.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	onEvict  func(K, V)
	now      func() time.Time
	items    map[K]*node[K, V]
	head     *node[K, V] // sentinel, most recent side
	tail     *node[K, V] // sentinel, least recent side
	metrics  Metrics
}

// New creates an LRU cache with the given capacity.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	c := &Cache[K, V]{
		capacity: capacity,
		now:      time.Now,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type evicted[K comparable, V any] struct {
	key K
	val V
}

func (c *Cache[K, V]) notify(victims []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, v := range victims {
		c.onEvict(v.key, v.val)
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	n, ok := c.items[key]
	if !ok {
		c.metrics.Misses++
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	if c.expired(n) {
		c.unlink(n)
		c.metrics.Expirations++
		c.metrics.Misses++
		c.mu.Unlock()
		c.notify([]evicted[K, V]{{n.key, n.val}})
		var zero V
		return zero, false
	}
	c.metrics.Hits++
	c.moveToFront(n)
	val := n.val
	c.mu.Unlock()
	return val, true
}

// Put inserts or updates key using the cache's default TTL. When the cache
// is full the least recently used entry is evicted and returned.
func (c *Cache[K, V]) Put(key K, val V) (K, V, bool) {
	return c.PutWithTTL(key, val, c.ttl)
}

// PutWithTTL is Put with an explicit lifetime. A ttl <= 0 never expires.
func (c *Cache[K, V]) PutWithTTL(key K, val V, ttl time.Duration) (K, V, bool) {
	var expires time.Time
	c.mu.Lock()
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	if n, ok := c.items[key]; ok {
		n.val = val
		n.expires = expires
		c.moveToFront(n)
		c.mu.Unlock()
		var zk K
		var zv V
		return zk, zv, false
	}

	var victim *node[K, V]
	if len(c.items) >= c.capacity {
		victim = c.tail.prev
		c.unlink(victim)
		c.metrics.Evictions++
	}

	n := &node[K, V]{key: key, val: val, expires: expires}
	c.items[key] = n
	c.pushFront(n)
	c.mu.Unlock()

	if victim == nil {
		var zk K
		var zv V
		return zk, zv, false
	}
	c.notify([]evicted[K, V]{{victim.key, victim.val}})
	return victim.key, victim.val, true
}

// Delete removes key. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}
	c.unlink(n)
	return true
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Peek returns the value for key without touching recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok || c.expired(n) {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Keys returns live keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for cur := c.head.next; cur != c.tail; cur = cur.next {
		if c.expired(cur) {
			continue
		}
		keys = append(keys, cur.key)
	}
	return keys
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	var victims []evicted[K, V]
	for cur := c.tail.prev; cur != c.head; {
		prev := cur.prev
		if c.expired(cur) {
			c.unlink(cur)
			c.metrics.Expirations++
			victims = append(victims, evicted[K, V]{cur.key, cur.val})
		}
		cur = prev
	}
	c.mu.Unlock()

	c.notify(victims)
	return len(victims)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[K]*node[K, V], c.capacity)
}

// Metrics returns a copy of the activity counters.
func (c *Cache[K, V]) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// --- list operations, caller holds c.mu ---

func (c *Cache[K, V]) expired(n *node[K, V]) bool {
	return !n.expires.IsZero() && !c.now().Before(n.expires)
}

func (c *Cache[K, V]) unlink(n *node[K, V]) {
	c.remove(n)
	delete(c.items, n.key)
}

func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
