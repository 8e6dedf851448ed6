package render

import (
	"bytes"
	"io"
	"sync"
)

// PageRenderer writes one rendered page into w.
type PageRenderer func(w io.Writer) error

// PageCache holds rendered pages keyed by palette in a small LRU so that
// serving the same palette repeatedly does not redraw ~3,000 county paths.
type PageCache struct {
	cache *lruCache
}

// NewPageCache creates a cache holding at most maxEntries pages.
func NewPageCache(maxEntries int) *PageCache {
	return &PageCache{cache: newLRUCache(maxEntries)}
}

// Get returns the cached page for key, rendering and storing it on a miss.
// The boolean reports whether the page came from the cache. Failed renders
// are not cached.
func (c *PageCache) Get(key string, render PageRenderer) ([]byte, bool, error) {
	if page, ok := c.cache.get(key); ok {
		return page, true, nil
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return nil, false, err
	}
	page := buf.Bytes()
	c.cache.put(key, page)
	return page, false, nil
}

// Len reports the number of cached pages.
func (c *PageCache) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

// lruCache is a simple thread-safe LRU cache of rendered pages.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
