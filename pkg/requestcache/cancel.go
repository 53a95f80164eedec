package requestcache

import (
	"sync"

	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// CancelOrderCache tracks order ids with an in-flight cancel request. A
// cancel is "in flight" precisely while its id is in the set.
type CancelOrderCache struct {
	mu      sync.Mutex
	nextID  RequestId
	pending map[string]struct{}
}

// NewCancelOrderCache returns an empty cancel-order cache.
func NewCancelOrderCache() *CancelOrderCache {
	return &CancelOrderCache{pending: make(map[string]struct{})}
}

// Insert marks id as having an in-flight cancel, allocating and returning
// the request id for the emitted venue request.
func (c *CancelOrderCache) Insert(id orderbook.OrderId) RequestId {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[string(id)] = struct{}{}
	rid := c.nextID
	if c.nextID != ^RequestId(0) {
		c.nextID++
	}
	return rid
}

// Remove clears id's in-flight marker, reporting whether it was present.
func (c *CancelOrderCache) Remove(id orderbook.OrderId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.pending[string(id)]
	if exists {
		delete(c.pending, string(id))
	}
	return exists
}

// InFlight reports whether id currently has a pending cancel request.
func (c *CancelOrderCache) InFlight(id orderbook.OrderId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.pending[string(id)]
	return exists
}
