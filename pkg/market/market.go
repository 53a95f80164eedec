// Package market implements the market cache: a symbol-to-Market map
// refreshed wholesale from the venue, gated by a request id so a stale
// get_markets response cannot clobber a newer one.
package market

import (
	"sync"

	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/requestcache"
)

// Market is the venue's static configuration for one trading symbol:
// its base and quote assets and display precision.
type Market struct {
	Symbol    string
	Base      balance.AssetId
	Quote     balance.AssetId
	Precision uint8
}

// Cache holds the venue's current market set.
type Cache struct {
	mu      sync.RWMutex
	current requestcache.RequestId
	markets map[string]Market
}

// New returns an empty market cache.
func New() *Cache {
	return &Cache{markets: make(map[string]Market)}
}

// SetMarkets replaces the whole market set, but only if rid matches the
// cache's currently recorded request id; a stale get_markets response
// arriving after a newer one already landed is rejected.
func (c *Cache) SetMarkets(rid requestcache.RequestId, list []Market) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rid != c.current {
		return false
	}
	next := make(map[string]Market, len(list))
	for _, m := range list {
		next[m.Symbol] = m
	}
	c.markets = next
	return true
}

// NextRequestID allocates the request id to tag the next outgoing
// get_markets request with, recording it as the one response SetMarkets
// will accept; any response tagged with an earlier id is now stale.
func (c *Cache) NextRequestID() requestcache.RequestId {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	return c.current
}

// Get looks up a market by its wire symbol (e.g. "btcusd").
func (c *Cache) Get(symbol string) (Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[symbol]
	return m, ok
}

// List returns a snapshot of all cached markets.
func (c *Cache) List() []Market {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Market, 0, len(c.markets))
	for _, m := range c.markets {
		out = append(out, m)
	}
	return out
}
