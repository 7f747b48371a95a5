package duplicate

import (
	"container/list"
	"sync"

	"go-receipt-capture/pkg/models"
)

const defaultCacheCapacity = 128

// HashCache is a bounded LRU mapping from fingerprint to receipt id. It
// short-circuits remote duplicate checks for exact repeats within a session;
// nothing is persisted across process restarts. Reads and writes from the
// capture path are serialized internally since accidental double-taps produce
// captures in rapid succession.
type HashCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[models.PerceptualHash]*list.Element
}

type cacheEntry struct {
	hash      models.PerceptualHash
	receiptID string
}

// NewHashCache creates a cache bounded to the given capacity; non-positive
// values fall back to the default.
func NewHashCache(capacity int) *HashCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &HashCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[models.PerceptualHash]*list.Element, capacity),
	}
}

// Get returns the receipt id recorded for an exact fingerprint match and
// marks the entry as recently used.
func (c *HashCache) Get(hash models.PerceptualHash) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[hash]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).receiptID, true
}

// Put records a fingerprint against a receipt id, evicting the least
// recently used entry once the capacity is exceeded.
func (c *HashCache) Put(hash models.PerceptualHash, receiptID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[hash]; ok {
		elem.Value.(*cacheEntry).receiptID = receiptID
		c.order.MoveToFront(elem)
		return
	}

	c.entries[hash] = c.order.PushFront(&cacheEntry{hash: hash, receiptID: receiptID})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).hash)
	}
}

// Len returns the number of cached fingerprints.
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
