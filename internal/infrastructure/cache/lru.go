package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/scancart/backend/internal/domain"
)

// entry is a single cached barcode/product association
type entry struct {
	barcode string
	product *domain.ScannedProduct
}

// LRUCache is a thread-safe, capacity-bounded product cache. Barcodes are
// immutable keys for a product identity, so entries never expire; when the
// cache is full the least recently used entry is evicted.
type LRUCache struct {
	capacity int

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

// DefaultCapacity bounds the cache when no capacity is configured
const DefaultCapacity = 1000

// NewLRUCache creates a product cache holding at most capacity entries
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRUCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get retrieves a product by barcode, marking it most recently used
func (c *LRUCache) Get(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[barcode]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry).product, nil
}

// Set stores a product under its barcode, evicting the least recently used
// entry when the cache is at capacity. Writes are idempotent: re-setting an
// existing barcode refreshes recency and replaces the value.
func (c *LRUCache) Set(ctx context.Context, barcode string, product *domain.ScannedProduct) error {
	if barcode == "" || product == nil {
		return domain.ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[barcode]; ok {
		elem.Value.(*entry).product = product
		c.order.MoveToFront(elem)
		return nil
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).barcode)
		}
	}

	c.entries[barcode] = c.order.PushFront(&entry{barcode: barcode, product: product})
	return nil
}

// Delete removes a barcode from the cache
func (c *LRUCache) Delete(ctx context.Context, barcode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[barcode]; ok {
		c.order.Remove(elem)
		delete(c.entries, barcode)
	}
	return nil
}

// Len returns the current number of cached entries
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
