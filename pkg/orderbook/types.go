// Package orderbook implements the orderbook mirror: a lock-guarded map
// from OrderId to Order, with the add/lookup/remove/edit and settlement
// quantity-decrement operations the gateway and settlement path drive.
//
// This is deliberately not a price-time matching book. Price discovery
// happens at the external venue, so there is no bid/ask heap or match
// loop here, only a flat mirror of orders the venue has confirmed.
package orderbook

import (
	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
)

// OrderKind is the order's execution class.
type OrderKind uint8

const (
	KindMarket OrderKind = iota
	KindLimit
	KindPostOnly
	KindFillOrKill
)

// OrderSide is the order's side of the book.
type OrderSide uint8

const (
	SideBid OrderSide = iota
	SideAsk
)

// MarketId is the {base, quote} asset pair identifying a trading pair.
type MarketId struct {
	Base  balance.AssetId
	Quote balance.AssetId
}

// OrderId is the venue-assigned opaque order identifier. It is stored
// internally as a string for map-key use and re-exposed as []byte.
type OrderId []byte

func (id OrderId) key() string { return string(id) }

// Order is the trusted core's in-memory record of a confirmed order.
type Order struct {
	User       accounts.AccountId
	Market     MarketId
	MarketType []byte
	Kind       OrderKind
	Side       OrderSide
	Quantity   fixedpoint.Amount
	// Price is required iff Kind != KindMarket.
	Price *fixedpoint.Amount
}
