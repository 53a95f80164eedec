// Package rpc implements the direct-RPC surface: an HTTP+WebSocket
// adapter exposing place_order, cancel_order, withdraw, get_balance,
// get_nonce, and get_shielding_key. Every mutating handler verifies the
// envelope's signature, then dispatches into pkg/gateway; the read-only
// queries take no envelope (get_balance and get_nonce read
// pkg/balance/pkg/accounts directly). No business logic lives here.
package rpc

import "encoding/json"

// Envelope is the signed wrapper every direct-RPC operation arrives in.
// The core authenticates it by verifying the signature against the
// claimed signer and nonce before dispatching the wrapped call.
//
// Signer/Main are hex strings ("0x" + 64 hex chars) rather than the raw
// accounts.AccountId array, keeping the domain type's binary layout off
// the wire.
type Envelope struct {
	Signer    string          `json:"signer"`
	Main      string          `json:"main,omitempty"`
	Nonce     uint32          `json:"nonce"`
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// PlaceOrderPayload is place_order's operation-specific payload.
type PlaceOrderPayload struct {
	Nickname     string `json:"nickname"`
	MarketSymbol string `json:"market_symbol"`
	Kind         string `json:"kind"`  // "market" | "limit" | "post_only" | "fill_or_kill"
	Side         string `json:"side"`  // "bid" | "ask"
	Quantity     string `json:"quantity"`
	Price        string `json:"price,omitempty"`
}

// CancelOrderPayload is cancel_order's operation-specific payload.
type CancelOrderPayload struct {
	MarketSymbol string `json:"market_symbol"`
	OrderID      string `json:"order_id"`
}

// WithdrawPayload is withdraw's operation-specific payload.
type WithdrawPayload struct {
	AssetKind string `json:"asset_kind"` // "native" | "asset"
	AssetID   uint32 `json:"asset_id,omitempty"`
	Amount    string `json:"amount"`
}

// PlaceOrderResponse is returned on a successful place_order.
type PlaceOrderResponse struct {
	RequestID uint64 `json:"request_id"`
}

// CancelOrderResponse is returned on a successful cancel_order.
type CancelOrderResponse struct {
	RequestID uint64 `json:"request_id"`
}

// BalanceResponse answers get_balance.
type BalanceResponse struct {
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
}

// NonceResponse answers get_nonce.
type NonceResponse struct {
	Nonce uint32 `json:"nonce"`
}

// ShieldingKeyResponse answers get_shielding_key: the PEM-encoded RSA
// public key callers should encrypt sensitive payload fields against
// before submission.
type ShieldingKeyResponse struct {
	PublicKeyPEM string `json:"public_key_pem"`
}

// ErrorResponse is returned for any handler failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WSSubscribeRequest is sent by a connected operator client to subscribe
// to broadcast channels ("orders", "trades").
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// OrderEvent is broadcast to subscribed operator clients whenever an
// order is placed, filled, or cancelled.
type OrderEvent struct {
	Type      string `json:"type"` // "order"
	OrderID   string `json:"order_id"`
	Status    string `json:"status"` // "resting" | "cancelled" | the venue's order-state code for order updates
	Remaining string `json:"remaining,omitempty"`
}

// TradeEvent is broadcast to subscribed operator clients whenever a
// trade settles.
type TradeEvent struct {
	Type         string `json:"type"` // "trade"
	MarketSymbol string `json:"market_symbol"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
}
