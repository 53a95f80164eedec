// Package gateway implements the trusted operation gateway: the only
// component that authenticates a signed operation and mutates the
// accounts/nonce, balance, orderbook, and request-cache stores on its
// behalf, emitting the resulting venue request once every store mutation
// has committed.
package gateway

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/chainrelay"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
	"github.com/sigil-dex/tee-core/pkg/outbox"
	"github.com/sigil-dex/tee-core/pkg/requestcache"
	"github.com/sigil-dex/tee-core/pkg/venue"
)

// VenueSender delivers an already-encoded frame to the venue's WebSocket
// connection. Implemented by whatever owns the live socket (pkg/venue's
// client in the full process); the gateway never performs I/O while
// holding a store lock.
type VenueSender interface {
	Send(frame []byte) error
}

// Gateway glues the stores together: handles to every store it touches,
// plus the venue sender and extrinsic outbox it drives as a result.
//
// Each field is a long-lived handle constructed once at startup and never
// replaced.
type Gateway struct {
	accounts    *accounts.Store
	balances    *balance.Ledger
	orders      *orderbook.Store
	createCache *requestcache.CreateOrderCache
	cancelCache *requestcache.CancelOrderCache
	outbox      *outbox.Outbox
	sender      VenueSender
	log         *zap.Logger
}

// New wires a Gateway from its store handles. Every handle must be
// non-nil; a nil handle means startup wiring left a component
// uninitialized, reported as ErrUnableToLoadPointer.
func New(
	accountsStore *accounts.Store,
	balances *balance.Ledger,
	orders *orderbook.Store,
	createCache *requestcache.CreateOrderCache,
	cancelCache *requestcache.CancelOrderCache,
	ob *outbox.Outbox,
	sender VenueSender,
	log *zap.Logger,
) (*Gateway, error) {
	if accountsStore == nil || balances == nil || orders == nil || createCache == nil || cancelCache == nil || ob == nil || sender == nil {
		return nil, ErrUnableToLoadPointer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		accounts:    accountsStore,
		balances:    balances,
		orders:      orders,
		createCache: createCache,
		cancelCache: cancelCache,
		outbox:      ob,
		sender:      sender,
		log:         log,
	}, nil
}

// authenticate resolves the effective main account for signer under the
// optional proxy claim main: with no proxy claim the signer itself must
// be a registered main account; with a proxy claim the (main, signer)
// pair must be registered.
func (g *Gateway) authenticate(signer accounts.AccountId, main *accounts.AccountId) (accounts.AccountId, error) {
	if main == nil {
		if !g.accounts.IsMain(signer) {
			return accounts.AccountId{}, accounts.ErrMainAccountNotRegistered
		}
		return signer, nil
	}

	ok, err := g.accounts.IsProxy(*main, signer)
	if err != nil {
		return accounts.AccountId{}, err
	}
	if !ok {
		return accounts.AccountId{}, ErrProxyNotRegisteredForMainAccount
	}
	return *main, nil
}

// PlaceOrder authenticates req, validates and increments the effective
// main account's nonce, reserves the required balance for the order's
// kind/side, caches the pending order under a freshly allocated request
// id, and emits the venue create_order request.
func (g *Gateway) PlaceOrder(req PlaceOrderRequest) (requestcache.RequestId, error) {
	main, err := g.authenticate(req.Signer, req.Main)
	if err != nil {
		return 0, err
	}

	if err := g.accounts.ValidateAndIncrement(main, req.ClaimedNonce); err != nil {
		return 0, err
	}

	reserveAsset, reserveAmount, err := g.reserveAmountFor(req)
	if err != nil {
		return 0, err
	}
	if err := g.balances.Reserve(main, reserveAsset, reserveAmount); err != nil {
		return 0, err
	}

	order := orderbook.Order{
		User:       main,
		Market:     req.Market,
		MarketType: defaultMarketType,
		Kind:       req.Kind,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
	}
	requestID := g.createCache.Insert(order)

	symbol, err := venue.MarketSymbol(req.Market.Base, req.Market.Quote)
	if err != nil {
		return requestID, fmt.Errorf("gateway: resolve market symbol: %w", err)
	}
	frame, err := venue.EncodeCreateOrder(requestID, req.Nickname, symbol, defaultMarketType, req.Kind, req.Side, req.Quantity, req.Price)
	if err != nil {
		return requestID, fmt.Errorf("gateway: encode create_order: %w", err)
	}
	if err := g.sender.Send(frame); err != nil {
		g.log.Warn("create_order send failed, entry remains cached until the next sweep",
			zap.Uint64("request_id", uint64(requestID)), zap.Error(err))
		return requestID, fmt.Errorf("gateway: send create_order: %w", err)
	}
	return requestID, nil
}

// reserveAmountFor computes which asset and amount place_order must
// reserve for req's order kind/side: base quantity for an ask,
// price*quantity of quote for a limit bid.
func (g *Gateway) reserveAmountFor(req PlaceOrderRequest) (balance.AssetId, fixedpoint.Amount, error) {
	switch req.Kind {
	case orderbook.KindLimit:
		if req.Price == nil {
			return balance.AssetId{}, fixedpoint.Amount{}, ErrLimitOrderPriceNotFound
		}
		switch req.Side {
		case orderbook.SideBid:
			amount, ok := fixedpoint.MulDiv(*req.Price, req.Quantity)
			if !ok {
				return balance.AssetId{}, fixedpoint.Amount{}, ErrPriceQuantityOverflow
			}
			return req.Market.Quote, amount, nil
		case orderbook.SideAsk:
			return req.Market.Base, req.Quantity, nil
		}
	case orderbook.KindMarket:
		switch req.Side {
		case orderbook.SideAsk:
			return req.Market.Base, req.Quantity, nil
		case orderbook.SideBid:
			return balance.AssetId{}, fixedpoint.Amount{}, ErrNotImplemented
		}
	case orderbook.KindPostOnly, orderbook.KindFillOrKill:
		return balance.AssetId{}, fixedpoint.Amount{}, ErrNotImplemented
	}
	return balance.AssetId{}, fixedpoint.Amount{}, ErrNotImplemented
}

// ProcessCreateOrder finalizes a previously cached pending order into
// the orderbook mirror once the venue confirms its id. An unknown
// request id is logged and dropped rather than treated as an error; the
// venue may confirm a request the cache already swept.
func (g *Gateway) ProcessCreateOrder(requestID requestcache.RequestId, orderID orderbook.OrderId) {
	order, ok := g.createCache.Remove(requestID)
	if !ok {
		g.log.Info("process_create_order: no cached order for request id, dropping",
			zap.Uint64("request_id", uint64(requestID)))
		return
	}
	g.orders.Add(orderID, order)
}

// CancelOrder authenticates req, validates and increments the nonce,
// marks the order id as having an in-flight cancel, and emits the venue
// cancel_order request. The balance release happens later in OnCancelAck,
// once the venue acknowledges.
func (g *Gateway) CancelOrder(req CancelOrderRequest) (requestcache.RequestId, error) {
	main, err := g.authenticate(req.Signer, req.Main)
	if err != nil {
		return 0, err
	}
	if err := g.accounts.ValidateAndIncrement(main, req.ClaimedNonce); err != nil {
		return 0, err
	}

	requestID := g.cancelCache.Insert(req.OrderID)

	frame, err := venue.EncodeCancelOrder(requestID, req.MarketSymbol, req.OrderID)
	if err != nil {
		return requestID, fmt.Errorf("gateway: encode cancel_order: %w", err)
	}
	if err := g.sender.Send(frame); err != nil {
		return requestID, fmt.Errorf("gateway: send cancel_order: %w", err)
	}
	return requestID, nil
}

// OnCancelAck handles the venue's acknowledgement of a cancel_order
// request: it looks up the order, releases its remaining reservation,
// removes it from the orderbook, and clears the in-flight cancel marker.
// A cancel acknowledged for an order the core no longer has (already
// fully filled, or never cached) is logged and dropped.
func (g *Gateway) OnCancelAck(orderID orderbook.OrderId) error {
	order, err := g.orders.Read(orderID)
	if err != nil {
		if errors.Is(err, orderbook.ErrOrderNotFound) {
			g.log.Info("cancel ack for unknown order, dropping", zap.ByteString("order_id", orderID))
			g.cancelCache.Remove(orderID)
			return nil
		}
		return err
	}

	asset, amount, err := g.releaseAmountFor(order)
	if err != nil {
		return err
	}
	if !amount.IsZero() {
		if err := g.balances.Unreserve(order.User, asset, amount); err != nil {
			return err
		}
	}

	if _, err := g.orders.Remove(orderID); err != nil && !errors.Is(err, orderbook.ErrOrderNotFound) {
		return err
	}
	g.cancelCache.Remove(orderID)
	return nil
}

// releaseAmountFor computes the asset/amount a cancelled order's
// remaining reservation releases: remaining base for an ask,
// price*remaining of quote for a limit bid. A cancelled market ask
// releases its remaining base reservation by the same rule as a limit
// ask, since place_order reserved base for it identically; anything else
// would leak the reservation.
func (g *Gateway) releaseAmountFor(order orderbook.Order) (balance.AssetId, fixedpoint.Amount, error) {
	switch order.Kind {
	case orderbook.KindLimit:
		if order.Price == nil {
			return balance.AssetId{}, fixedpoint.Amount{}, ErrPriceNotFound
		}
		switch order.Side {
		case orderbook.SideBid:
			amount, ok := fixedpoint.MulDiv(*order.Price, order.Quantity)
			if !ok {
				return balance.AssetId{}, fixedpoint.Amount{}, ErrPriceQuantityOverflow
			}
			return order.Market.Quote, amount, nil
		case orderbook.SideAsk:
			return order.Market.Base, order.Quantity, nil
		}
	case orderbook.KindMarket:
		if order.Side == orderbook.SideAsk {
			return order.Market.Base, order.Quantity, nil
		}
		return balance.AssetId{}, fixedpoint.Zero(), nil
	}
	return balance.AssetId{}, fixedpoint.Zero(), nil
}

// Withdraw authenticates req, validates and increments the nonce,
// decreases the effective main account's free balance, and enqueues a
// release extrinsic through the outbox.
func (g *Gateway) Withdraw(req WithdrawRequest) error {
	main, err := g.authenticate(req.Signer, req.Main)
	if err != nil {
		return err
	}
	if err := g.accounts.ValidateAndIncrement(main, req.ClaimedNonce); err != nil {
		return err
	}
	if err := g.balances.Withdraw(main, req.Asset, req.Amount); err != nil {
		return err
	}

	payload, err := chainrelay.EncodeRelease(req.Asset, req.Amount, main)
	if err != nil {
		return fmt.Errorf("gateway: encode release extrinsic: %w", err)
	}
	g.outbox.Push(payload)
	return nil
}
