package gateway

import "errors"

// Errors the gateway itself raises; errors from subordinate stores
// (accounts.Err*, balance.Err*, orderbook.Err*) are returned unchanged
// and are not redeclared here.
var (
	// ErrProxyNotRegisteredForMainAccount is returned when a caller signs
	// with a claimed main account but is not an authorized proxy of it.
	ErrProxyNotRegisteredForMainAccount = errors.New("gateway: proxy not registered for main account")

	// ErrPriceNotFound is returned when an operation needs an order's
	// price but the order record has none (defensive: KindLimit orders
	// always carry a price once accepted, so this should never fire in
	// practice).
	ErrPriceNotFound = errors.New("gateway: price not found")

	// ErrLimitOrderPriceNotFound is returned by place_order when a limit
	// order arrives with no price.
	ErrLimitOrderPriceNotFound = errors.New("gateway: limit order price not found")

	// ErrPriceQuantityOverflow is returned when price*quantity overflows
	// the 128-bit fixed-point range during a limit bid's reserve amount
	// calculation.
	ErrPriceQuantityOverflow = errors.New("gateway: price*quantity overflow")

	// ErrAccountIdOrAssetIdNotFound mirrors balance.ErrAccountOrAsset
	// under the gateway's own taxonomy name.
	ErrAccountIdOrAssetIdNotFound = errors.New("gateway: account id or asset id not found")

	// ErrUnableToLock is reserved for a store-level lock acquisition
	// failure. Go's sync.Mutex cannot fail to lock, so nothing in this
	// package returns it today; callers that switch on the full error
	// set can still name it.
	ErrUnableToLock = errors.New("gateway: unable to lock store")

	// ErrUnableToLoadPointer is returned by New when constructed with a
	// nil store handle. Store handles are built once at startup and never
	// replaced, so a nil handle here means startup wiring was incomplete.
	ErrUnableToLoadPointer = errors.New("gateway: unable to load store pointer")

	// ErrNotImplemented is returned for order shapes the venue does not
	// support in this revision (market-bid, PostOnly, FillOrKill).
	ErrNotImplemented = errors.New("gateway: not implemented")
)
