package venue

import (
	"fmt"
	"time"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/domain"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
	"github.com/sigil-dex/tee-core/pkg/ss58"
)

const (
	preambleResponse = 2
	preambleEvent    = 5
)

// ErrorMessage is the venue's error response.
type ErrorMessage struct {
	RequestID int64
	Text      string
}

// CreateOrderResponse carries the venue-assigned order id for a completed
// admin_create_order request.
type CreateOrderResponse struct {
	RequestID int64
	OrderID   orderbook.OrderId
}

// CancelAck acknowledges a completed admin_cancel_order request.
type CancelAck struct {
	RequestID int64
	OrderID   orderbook.OrderId
}

// SubscriptionResponse acknowledges a subscribe request.
type SubscriptionResponse struct {
	RequestID int64
	Name      string
	Events    []string
}

// DepositResponse carries the chain record id for a confirmed deposit.
type DepositResponse struct {
	RequestID int64
	RecordID  int64
}

// WithdrawResponse carries the chain record id for a confirmed withdrawal.
type WithdrawResponse struct {
	RequestID int64
	RecordID  int64
}

// GetMarketsResponse carries the raw per-market JSON blobs from a
// get_markets response, left unparsed for pkg/market to decode.
type GetMarketsResponse struct {
	RequestID int64
	JSONs     []string
}

// Map turns a parsed venue response/event frame into one of the typed
// messages above, or a *domain.OrderUpdate / *domain.TradeEvent for the
// "ou"/"tr" subscription events.
func Map(nodes []node) (any, error) {
	if len(nodes) == 0 || nodes[0].kind != nodeNumber {
		return nil, fmt.Errorf("%w: missing preamble", ErrResponseParsing)
	}

	switch nodes[0].num {
	case preambleResponse:
		if len(nodes) < 4 {
			return nil, fmt.Errorf("%w: response frame missing fields", ErrResponseParsing)
		}
		requestID := nodes[1].num
		method := nodes[2].str
		params := nodes[3].list
		return mapResponse(requestID, method, params)
	case preambleEvent:
		if len(nodes) < 3 {
			return nil, fmt.Errorf("%w: event frame missing fields", ErrResponseParsing)
		}
		method := nodes[1].str
		params := nodes[2].list
		return mapEvent(method, params)
	default:
		return nil, fmt.Errorf("%w: unknown preamble %d", ErrResponseParsing, nodes[0].num)
	}
}

func mapResponse(requestID int64, method string, params []node) (any, error) {
	switch method {
	case MethodError:
		return ErrorMessage{RequestID: requestID, Text: str(params, 0)}, nil
	case MethodCreateOrder:
		return CreateOrderResponse{RequestID: requestID, OrderID: orderbook.OrderId(str(params, 0))}, nil
	case MethodCancelOrder:
		return CancelAck{RequestID: requestID, OrderID: orderbook.OrderId(str(params, 0))}, nil
	case MethodSubscribe:
		var events []string
		if len(params) > 1 && params[1].kind == nodeList {
			for _, e := range params[1].list {
				events = append(events, e.str)
			}
		}
		return SubscriptionResponse{RequestID: requestID, Name: str(params, 0), Events: events}, nil
	case MethodDeposit:
		return DepositResponse{RequestID: requestID, RecordID: num(params, 0)}, nil
	case MethodWithdraw:
		return WithdrawResponse{RequestID: requestID, RecordID: num(params, 0)}, nil
	case MethodGetMarkets:
		jsons := make([]string, 0, len(params))
		for _, p := range params {
			if p.kind == nodeJSON || p.kind == nodeString {
				jsons = append(jsons, p.str)
			}
		}
		return GetMarketsResponse{RequestID: requestID, JSONs: jsons}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized response method %q", ErrResponseParsing, method)
	}
}

func mapEvent(method string, params []node) (any, error) {
	switch method {
	case EventOrderUpdate:
		return mapOrderUpdate(params)
	case EventTrade:
		return mapTradeEvent(params)
	default:
		return nil, fmt.Errorf("%w: unrecognized event method %q", ErrResponseParsing, method)
	}
}

// mapOrderUpdate decodes the "ou" event. Parameter order: uid, nickname,
// market, order_id, order_uuid, side, state, type, price, avg_price,
// volume_order, volume_origin, volume_executed, trade_count, timestamp.
func mapOrderUpdate(p []node) (*domain.OrderUpdate, error) {
	if len(p) < 15 {
		return nil, fmt.Errorf("%w: order update missing fields", ErrResponseParsing)
	}
	uid, err := decodeAccount(str(p, 0))
	if err != nil {
		return nil, err
	}
	price, err := decodeAmount(str(p, 8))
	if err != nil {
		return nil, err
	}
	avgPrice, err := decodeAmount(str(p, 9))
	if err != nil {
		return nil, err
	}
	volOrder, err := decodeAmount(str(p, 10))
	if err != nil {
		return nil, err
	}
	volOrigin, err := decodeAmount(str(p, 11))
	if err != nil {
		return nil, err
	}
	volExecuted, err := decodeAmount(str(p, 12))
	if err != nil {
		return nil, err
	}

	return &domain.OrderUpdate{
		UID:            uid,
		Nickname:       str(p, 1),
		Market:         str(p, 2),
		OrderID:        orderbook.OrderId(str(p, 3)),
		OrderUUID:      str(p, 4),
		Side:           str(p, 5),
		State:          str(p, 6),
		Type:           str(p, 7),
		Price:          price,
		AvgPrice:       avgPrice,
		VolumeOrder:    volOrder,
		VolumeOrigin:   volOrigin,
		VolumeExecuted: volExecuted,
		TradeCount:     uint64(num(p, 13)),
		Timestamp:      time.UnixMilli(num(p, 14)),
	}, nil
}

// mapTradeEvent decodes the "tr" event. Parameter order: market,
// trade_id, price, amount, funds, maker_order_id, maker_order_uuid,
// maker_uid, maker_nickname, taker_order_id, taker_order_uuid, taker_uid,
// taker_nickname, maker_side, timestamp.
func mapTradeEvent(p []node) (*domain.TradeEvent, error) {
	if len(p) < 15 {
		return nil, fmt.Errorf("%w: trade event missing fields", ErrResponseParsing)
	}
	price, err := decodeAmount(str(p, 2))
	if err != nil {
		return nil, err
	}
	amount, err := decodeAmount(str(p, 3))
	if err != nil {
		return nil, err
	}
	funds, err := decodeAmount(str(p, 4))
	if err != nil {
		return nil, err
	}
	maker, err := decodeAccount(str(p, 7))
	if err != nil {
		return nil, err
	}
	taker, err := decodeAccount(str(p, 11))
	if err != nil {
		return nil, err
	}
	makerSide, err := SideFromCode(str(p, 13))
	if err != nil {
		return nil, err
	}

	return &domain.TradeEvent{
		Symbol:       str(p, 0),
		TradeID:      uint64(num(p, 1)),
		Price:        price,
		Amount:       amount,
		Funds:        funds,
		MakerOrderID: orderbook.OrderId(str(p, 5)),
		Maker:        maker,
		TakerOrderID: orderbook.OrderId(str(p, 9)),
		Taker:        taker,
		MakerSide:    makerSide,
		Timestamp:    time.UnixMilli(num(p, 14)),
	}, nil
}

func decodeAmount(s string) (fixedpoint.Amount, error) {
	amt, err := fixedpoint.Parse(s)
	if err != nil {
		return fixedpoint.Amount{}, fmt.Errorf("%w: %v", ErrFixedPointConversion, err)
	}
	return amt, nil
}

func decodeAccount(s string) (accounts.AccountId, error) {
	id, _, err := ss58.Decode(s)
	if err != nil {
		return accounts.AccountId{}, fmt.Errorf("%w: %v", ErrResponseParsing, err)
	}
	return accounts.AccountId(id), nil
}

func str(nodes []node, i int) string {
	if i >= len(nodes) {
		return ""
	}
	n := nodes[i]
	switch n.kind {
	case nodeString, nodeJSON:
		return n.str
	case nodeNumber:
		return fmt.Sprintf("%d", n.num)
	default:
		return ""
	}
}

func num(nodes []node, i int) int64 {
	if i >= len(nodes) {
		return 0
	}
	return nodes[i].num
}
