package venue

import (
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// Venue method names.
const (
	MethodCreateOrder = "admin_create_order"
	MethodCancelOrder = "admin_cancel_order"
	MethodGetMarkets  = "get_markets"
	MethodSubscribe   = "subscribe"
	MethodError       = "error"
	MethodDeposit     = "deposit"
	MethodWithdraw    = "withdraw"

	EventOrderUpdate = "ou"
	EventTrade       = "tr"
)

// OrderKindCode renders an order kind as its single-letter wire code:
// "m"|"l"|"p"|"f" for Market/Limit/PostOnly/FillOrKill.
func OrderKindCode(k orderbook.OrderKind) (string, error) {
	switch k {
	case orderbook.KindMarket:
		return "m", nil
	case orderbook.KindLimit:
		return "l", nil
	case orderbook.KindPostOnly:
		return "p", nil
	case orderbook.KindFillOrKill:
		return "f", nil
	default:
		return "", fmt.Errorf("venue: unknown order kind %d", k)
	}
}

// OrderKindFromCode is the inverse of OrderKindCode.
func OrderKindFromCode(code string) (orderbook.OrderKind, error) {
	switch code {
	case "m":
		return orderbook.KindMarket, nil
	case "l":
		return orderbook.KindLimit, nil
	case "p":
		return orderbook.KindPostOnly, nil
	case "f":
		return orderbook.KindFillOrKill, nil
	default:
		return 0, fmt.Errorf("venue: unknown order-type code %q", code)
	}
}

// SideCode renders a side as its wire string: "buy" for a bid, "sell"
// for an ask.
func SideCode(s orderbook.OrderSide) (string, error) {
	switch s {
	case orderbook.SideBid:
		return "buy", nil
	case orderbook.SideAsk:
		return "sell", nil
	default:
		return "", fmt.Errorf("venue: unknown order side %d", s)
	}
}

// SideFromCode is the inverse of SideCode.
func SideFromCode(code string) (orderbook.OrderSide, error) {
	switch code {
	case "buy":
		return orderbook.SideBid, nil
	case "sell":
		return orderbook.SideAsk, nil
	default:
		return 0, fmt.Errorf("venue: unknown side code %q", code)
	}
}

// OrderState is the venue's order lifecycle state, carried on the wire
// as "d"|"w"|"c"|"r" for Done/Wait/Cancel/Reject.
type OrderState uint8

const (
	StateDone OrderState = iota
	StateWait
	StateCancel
	StateReject
)

// OrderStateFromCode parses the single-letter wire state code.
func OrderStateFromCode(code string) (OrderState, error) {
	switch code {
	case "d":
		return StateDone, nil
	case "w":
		return StateWait, nil
	case "c":
		return StateCancel, nil
	case "r":
		return StateReject, nil
	default:
		return 0, fmt.Errorf("venue: unknown order-state code %q", code)
	}
}
