package snapshotcache

import "container/list"

// memoryLRU is the in-memory tier: a bounded cache of decoded Records keyed
// by derived cache key, with insertion-reorder-on-access eviction (spec
// §4.8 "Eviction"). No suitable third-party LRU library appeared in the
// example pack's dependency surface, so this is a small hand-rolled
// container/list-backed cache — the standard idiomatic shape for this in
// Go.
type memoryLRU struct {
	ll         *list.List
	items      map[string]*list.Element
	totalBytes int
}

type lruEntry struct {
	key    string
	record Record
	size   int
}

func newMemoryLRU() *memoryLRU {
	return &memoryLRU{ll: list.New(), items: make(map[string]*list.Element)}
}

// get touches key to the MRU end and returns its entry.
func (c *memoryLRU) get(key string) (lruEntry, bool) {
	el, ok := c.items[key]
	if !ok {
		return lruEntry{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(lruEntry), true
}

// put inserts or replaces key, then evicts from the tail until maxEntries
// and maxBytes are both satisfied.
func (c *memoryLRU) put(key string, record Record, size int, maxEntries, maxBytes int) {
	if el, ok := c.items[key]; ok {
		old := el.Value.(lruEntry)
		c.totalBytes -= old.size
		el.Value = lruEntry{key: key, record: record, size: size}
		c.totalBytes += size
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(lruEntry{key: key, record: record, size: size})
		c.items[key] = el
		c.totalBytes += size
	}
	c.evictUntilWithin(maxEntries, maxBytes)
}

func (c *memoryLRU) evictUntilWithin(maxEntries, maxBytes int) {
	for c.ll.Len() > 0 && (c.ll.Len() > maxEntries || c.totalBytes > maxBytes) {
		back := c.ll.Back()
		if back == nil {
			break
		}
		entry := back.Value.(lruEntry)
		c.ll.Remove(back)
		delete(c.items, entry.key)
		c.totalBytes -= entry.size
		if c.totalBytes < 0 {
			c.totalBytes = 0
		}
	}
}

// reset clears the in-memory tier. Used by tests (spec §5 "teardown =
// explicit reset for tests" for the module-scoped LRU state).
func (c *memoryLRU) reset() {
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.totalBytes = 0
}

func (c *memoryLRU) len() int { return c.ll.Len() }
