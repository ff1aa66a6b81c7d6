package view

import "container/list"

// lruCache is a bounded, in-memory cache of decoded values keyed by string,
// evicting the least recently used entry once Size is exceeded. No example
// repo in the retrieval pack imports a third-party LRU library (the teacher
// caches kvrows pages with a hand-rolled map instead), so this follows the
// stdlib container/list approach used for ordered eviction lists generally.
type lruCache struct {
	size  int
	ll    *list.List
	items map[string]*list.Element
}

type lruEntry struct {
	key   string
	value interface{}
	dirty bool
}

func newLRUCache(size int) *lruCache {
	return &lruCache{
		size:  size,
		ll:    list.New(),
		items: map[string]*list.Element{},
	}
}

// Get returns the cached value for key, if present, moving it to the front.
func (c *lruCache) Get(key string) (interface{}, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

// Put inserts or replaces the cached value for key, evicting the least
// recently used entry if the cache is now over capacity. If evictFn is not
// nil it is called with every evicted key/value after the entry has been
// removed; it observes the eviction and cannot prevent it.
func (c *lruCache) Put(key string, value interface{}, evictFn func(key string, value interface{})) {
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el

	for c.size > 0 && c.ll.Len() > c.size {
		back := c.ll.Back()
		if back == nil {
			break
		}
		entry := back.Value.(*lruEntry)
		c.ll.Remove(back)
		delete(c.items, entry.key)
		if evictFn != nil {
			evictFn(entry.key, entry.value)
		}
	}
}

// Remove drops key from the cache, if present.
func (c *lruCache) Remove(key string) {
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Len returns the number of entries currently cached.
func (c *lruCache) Len() int {
	return c.ll.Len()
}
