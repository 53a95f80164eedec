// Package domain holds the wire-event object model shared between the
// protocol codec (pkg/venue, which produces these types from parsed venue
// messages) and the settlement path (pkg/settlement, which consumes
// TradeEvent), kept separate from both so neither imports the other.
package domain

import (
	"time"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// TradeEvent is a venue fill notification. Symbol is the raw wire market
// symbol ("btcusd"); Market is the resolved pair, filled in by whoever
// holds the market cache (the mapper itself cannot resolve symbols
// without depending on pkg/market).
type TradeEvent struct {
	Symbol       string
	Market       orderbook.MarketId
	TradeID      uint64
	Price        fixedpoint.Amount
	Amount       fixedpoint.Amount
	Funds        fixedpoint.Amount
	Maker        accounts.AccountId
	MakerOrderID orderbook.OrderId
	MakerSide    orderbook.OrderSide
	Taker        accounts.AccountId
	TakerOrderID orderbook.OrderId
	Timestamp    time.Time
}

// OrderUpdate is a venue order-status event.
type OrderUpdate struct {
	UID            accounts.AccountId
	Nickname       string
	Market         string
	OrderID        orderbook.OrderId
	OrderUUID      string
	Side           string
	State          string
	Type           string
	Price          fixedpoint.Amount
	AvgPrice       fixedpoint.Amount
	VolumeOrder    fixedpoint.Amount
	VolumeOrigin   fixedpoint.Amount
	VolumeExecuted fixedpoint.Amount
	TradeCount     uint64
	Timestamp      time.Time
}
