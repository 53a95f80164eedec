// Package requestcache implements the two pending-request rendezvous
// caches the gateway uses to correlate an asynchronous venue response
// with the order that triggered it: a create-order cache keyed by a
// monotonic request id, and a cancel-order cache that tracks in-flight
// cancel requests by order id. Each cache is protected by its own lock.
package requestcache

import (
	"sync"
	"time"

	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// RequestId is the monotonically increasing integer identifying a
// request-response pair on the venue channel.
type RequestId uint64

type pendingCreate struct {
	order      orderbook.Order
	insertedAt time.Time
}

// CreateOrderCache holds orders awaiting the venue's create_order
// response, keyed by the request id the gateway allocated when it emitted
// the request.
type CreateOrderCache struct {
	mu      sync.Mutex
	nextID  RequestId
	pending map[RequestId]pendingCreate
}

// NewCreateOrderCache returns an empty create-order cache.
func NewCreateOrderCache() *CreateOrderCache {
	return &CreateOrderCache{pending: make(map[RequestId]pendingCreate)}
}

// Insert stores order under a freshly allocated request id, then
// increments the counter (saturating at the uint64 max rather than
// wrapping, since wrapping back to a reused id would corrupt correlation).
func (c *CreateOrderCache) Insert(order orderbook.Order) RequestId {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.pending[id] = pendingCreate{order: order, insertedAt: time.Now()}
	if c.nextID != ^RequestId(0) {
		c.nextID++
	}
	return id
}

// Remove deletes and returns the order stored under id, if any.
func (c *CreateOrderCache) Remove(id RequestId) (orderbook.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.pending[id]
	if exists {
		delete(c.pending, id)
	}
	return entry.order, exists
}

// Peek returns the order stored under id without removing it.
func (c *CreateOrderCache) Peek(id RequestId) (orderbook.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, exists := c.pending[id]
	return entry.order, exists
}

// Len reports the number of pending create-order requests.
func (c *CreateOrderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Sweep drops pending entries older than minAge, returning the request
// ids it removed. Callers must not sweep entries younger than 60s since
// insertion; the bound is passed as minAge.
func (c *CreateOrderCache) Sweep(minAge time.Duration) []RequestId {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-minAge)
	var swept []RequestId
	for id, entry := range c.pending {
		if entry.insertedAt.Before(cutoff) {
			swept = append(swept, id)
			delete(c.pending, id)
		}
	}
	return swept
}
