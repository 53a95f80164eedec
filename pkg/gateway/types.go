package gateway

import (
	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// defaultMarketType is the only market type this revision's venue
// integration speaks (spot trading).
var defaultMarketType = []byte("spot")

// PlaceOrderRequest is the authenticated operation payload for
// place_order. Main is the proxy's claimed main account, nil when the
// signer is acting as its own main account.
type PlaceOrderRequest struct {
	Signer       accounts.AccountId
	Main         *accounts.AccountId
	ClaimedNonce uint32
	Nickname     string
	Market       orderbook.MarketId
	Kind         orderbook.OrderKind
	Side         orderbook.OrderSide
	Quantity     fixedpoint.Amount
	Price        *fixedpoint.Amount
}

// CancelOrderRequest is the authenticated operation payload for
// cancel_order. MarketSymbol is the venue wire symbol the cancel request
// is addressed to; it is supplied by the caller (typically carried
// alongside the order id from the RPC surface) rather than looked up
// from the orderbook, since cancel_order never consults it.
type CancelOrderRequest struct {
	Signer       accounts.AccountId
	Main         *accounts.AccountId
	ClaimedNonce uint32
	MarketSymbol string
	OrderID      orderbook.OrderId
}

// WithdrawRequest is the authenticated operation payload for withdraw.
type WithdrawRequest struct {
	Signer       accounts.AccountId
	Main         *accounts.AccountId
	ClaimedNonce uint32
	Asset        balance.AssetId
	Amount       fixedpoint.Amount
}
