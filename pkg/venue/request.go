package venue

import (
	"encoding/json"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
	"github.com/sigil-dex/tee-core/pkg/requestcache"
)

const preambleRequest = 1

// frame renders [1, request_id, method, [params...]] as the JSON array the
// venue expects on the wire.
func frame(requestID requestcache.RequestId, method string, params []any) ([]byte, error) {
	msg := []any{preambleRequest, requestID, method, params}
	out, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out, nil
}

// nullOrString renders s as itself, or an empty string for "no value";
// the venue's parameter lists represent nulls as empty strings.
func nullOrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// EncodeCreateOrder builds an admin_create_order request frame. Params:
// null, nickname, market_symbol, market_type, order_type, order_side,
// quantity_str, price_str?.
func EncodeCreateOrder(requestID requestcache.RequestId, nickname, marketSymbol string, marketType []byte, kind orderbook.OrderKind, side orderbook.OrderSide, quantity fixedpoint.Amount, price *fixedpoint.Amount) ([]byte, error) {
	kindCode, err := OrderKindCode(kind)
	if err != nil {
		return nil, err
	}
	sideCode, err := SideCode(side)
	if err != nil {
		return nil, err
	}

	var priceStr *string
	if price != nil {
		s := fixedpoint.Format(*price)
		priceStr = &s
	}

	params := []any{
		"",
		nickname,
		marketSymbol,
		string(marketType),
		kindCode,
		sideCode,
		fixedpoint.Format(quantity),
		nullOrString(priceStr),
	}
	return frame(requestID, MethodCreateOrder, params)
}

// EncodeCancelOrder builds an admin_cancel_order request frame. Params:
// market_symbol, [order_id_str].
func EncodeCancelOrder(requestID requestcache.RequestId, marketSymbol string, orderID orderbook.OrderId) ([]byte, error) {
	params := []any{marketSymbol, []any{string(orderID)}}
	return frame(requestID, MethodCancelOrder, params)
}

// EncodeGetMarkets builds a get_markets request frame (no params).
func EncodeGetMarkets(requestID requestcache.RequestId) ([]byte, error) {
	return frame(requestID, MethodGetMarkets, []any{})
}

// EncodeSubscribe builds the admin event subscription request frame.
// Params: "admin", ["events.order","events.trade"].
func EncodeSubscribe(requestID requestcache.RequestId) ([]byte, error) {
	params := []any{"admin", []any{"events.order", "events.trade"}}
	return frame(requestID, MethodSubscribe, params)
}
