package markdown

import (
	"container/list"
	"sync"
)

// LRU is a bounded least-recently-used cache. It keeps render memory
// bounded while avoiding recomputation of unchanged blocks. Safe for
// concurrent use; the render path is single-threaded but sessions may
// share caches read-mostly.
type LRU[V any] struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type lruEntry[V any] struct {
	key   string
	value V
}

// NewLRU creates a cache holding at most maxSize entries.
func NewLRU[V any](maxSize int) *LRU[V] {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &LRU[V]{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores a value, evicting the least recently used entry when the
// cache is full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[V]).value = value
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.entries, oldest.Value.(*lruEntry[V]).key)
			c.order.Remove(oldest)
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
}

// Len returns the number of cached entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
