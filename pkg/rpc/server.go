package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/gateway"
	"github.com/sigil-dex/tee-core/pkg/market"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// Server is the direct-RPC surface: a thin HTTP+WebSocket adapter in
// front of pkg/gateway (for mutations) and pkg/accounts/pkg/balance (for
// the two read-only queries).
type Server struct {
	gw        *gateway.Gateway
	accounts  *accounts.Store
	balances  *balance.Ledger
	markets   *market.Cache
	hub       *Hub
	shielding *shieldingKey
	router    *mux.Router
	log       *zap.Logger
}

// New wires a Server from its store/gateway handles.
func New(gw *gateway.Gateway, accountsStore *accounts.Store, balances *balance.Ledger, markets *market.Cache, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	key, err := newShieldingKey()
	if err != nil {
		return nil, err
	}

	s := &Server{
		gw:        gw,
		accounts:  accountsStore,
		balances:  balances,
		markets:   markets,
		hub:       newHub(log),
		shielding: key,
		router:    mux.NewRouter(),
		log:       log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/place_order", s.handlePlaceOrder).Methods("POST")
	v1.HandleFunc("/cancel_order", s.handleCancelOrder).Methods("POST")
	v1.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	v1.HandleFunc("/balance/{account}/{asset_kind}/{asset_id}", s.handleGetBalance).Methods("GET")
	v1.HandleFunc("/nonce/{account}", s.handleGetNonce).Methods("GET")
	v1.HandleFunc("/shielding_key", s.handleGetShieldingKey).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the CORS-wrapped router, ready to pass to
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Run serves the HTTP+WS surface until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("rpc: listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

// BroadcastOrderEvent fans ev out to every operator WebSocket client
// subscribed to order events.
func (s *Server) BroadcastOrderEvent(ev OrderEvent) {
	s.hub.PublishOrder(ev)
}

// BroadcastTradeEvent fans ev out to every operator WebSocket client
// subscribed to trade events.
func (s *Server) BroadcastTradeEvent(ev TradeEvent) {
	s.hub.PublishTrade(ev)
}

func decodeEnvelope(r *http.Request) (Envelope, error) {
	var e Envelope
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return e, nil
}

// requireOperation rejects an envelope whose claimed operation does not
// name the endpoint it was posted to. The operation is part of the
// signed message, so without this check a validly-signed envelope for
// one operation could be replayed against another endpoint and still
// pass signature verification.
func requireOperation(e Envelope, want string) error {
	if e.Operation != want {
		return fmt.Errorf("%w: operation %q posted to %s endpoint", ErrMalformedEnvelope, e.Operation, want)
	}
	return nil
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := requireOperation(env, OpPlaceOrder); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	signer, main, err := env.Verify()
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}

	var payload PlaceOrderPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err))
		return
	}

	m, ok := s.markets.Get(payload.MarketSymbol)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Errorf("rpc: unknown market symbol %q", payload.MarketSymbol))
		return
	}
	kind, err := parseKind(payload.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	side, err := parseSide(payload.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	quantity, err := fixedpoint.Parse(payload.Quantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var price *fixedpoint.Amount
	if payload.Price != "" {
		p, err := fixedpoint.Parse(payload.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		price = &p
	}

	req := gateway.PlaceOrderRequest{
		Signer:       signer,
		Main:         main,
		ClaimedNonce: env.Nonce,
		Nickname:     payload.Nickname,
		Market:       orderbook.MarketId{Base: m.Base, Quote: m.Quote},
		Kind:         kind,
		Side:         side,
		Quantity:     quantity,
		Price:        price,
	}
	rid, err := s.gw.PlaceOrder(req)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, PlaceOrderResponse{RequestID: uint64(rid)})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := requireOperation(env, OpCancelOrder); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	signer, main, err := env.Verify()
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}

	var payload CancelOrderPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err))
		return
	}
	orderID, err := decodeHex(payload.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req := gateway.CancelOrderRequest{
		Signer:       signer,
		Main:         main,
		ClaimedNonce: env.Nonce,
		MarketSymbol: payload.MarketSymbol,
		OrderID:      orderbook.OrderId(orderID),
	}
	rid, err := s.gw.CancelOrder(req)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, CancelOrderResponse{RequestID: uint64(rid)})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := requireOperation(env, OpWithdraw); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	signer, main, err := env.Verify()
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}

	var payload WithdrawPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err))
		return
	}
	asset, err := parseAsset(payload.AssetKind, payload.AssetID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := fixedpoint.Parse(payload.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req := gateway.WithdrawRequest{
		Signer:       signer,
		Main:         main,
		ClaimedNonce: env.Nonce,
		Asset:        asset,
		Amount:       amount,
	}
	if err := s.gw.Withdraw(req); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account, err := decodeAccount(vars["account"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	asset, err := parseAssetVars(vars["asset_kind"], vars["asset_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	bal, err := s.balances.Get(account, asset)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{
		Free:     fixedpoint.Format(bal.Free),
		Reserved: fixedpoint.Format(bal.Reserved),
	})
}

func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccount(mux.Vars(r)["account"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	nonce, err := s.accounts.ReadNonce(account)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, NonceResponse{Nonce: nonce})
}

func (s *Server) handleGetShieldingKey(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ShieldingKeyResponse{PublicKeyPEM: s.shielding.pem})
}

func parseKind(s string) (orderbook.OrderKind, error) {
	switch s {
	case "market":
		return orderbook.KindMarket, nil
	case "limit":
		return orderbook.KindLimit, nil
	case "post_only":
		return orderbook.KindPostOnly, nil
	case "fill_or_kill":
		return orderbook.KindFillOrKill, nil
	default:
		return 0, fmt.Errorf("%w: unknown order kind %q", ErrMalformedEnvelope, s)
	}
}

func parseSide(s string) (orderbook.OrderSide, error) {
	switch s {
	case "bid":
		return orderbook.SideBid, nil
	case "ask":
		return orderbook.SideAsk, nil
	default:
		return 0, fmt.Errorf("%w: unknown order side %q", ErrMalformedEnvelope, s)
	}
}

func parseAsset(kind string, id uint32) (balance.AssetId, error) {
	switch kind {
	case "native":
		return balance.Native(), nil
	case "asset":
		return balance.Asset(id), nil
	default:
		return balance.AssetId{}, fmt.Errorf("%w: unknown asset kind %q", ErrMalformedEnvelope, kind)
	}
}

func parseAssetVars(kind, idStr string) (balance.AssetId, error) {
	var id uint32
	if idStr != "" {
		if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
			return balance.AssetId{}, fmt.Errorf("%w: malformed asset id %q", ErrMalformedEnvelope, idStr)
		}
	}
	return parseAsset(kind, id)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

// statusFor maps a known sentinel error to its HTTP status. Auth and
// balance errors are surfaced to the caller verbatim; anything
// unrecognized is an infrastructure error and answers 500, with the
// error text still carried in the response message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, accounts.ErrMainAccountNotRegistered),
		errors.Is(err, accounts.ErrAccountNotRegistered),
		errors.Is(err, accounts.ErrProxyNotRegistered),
		errors.Is(err, accounts.ErrNonceUninitialized),
		errors.Is(err, accounts.ErrNonceValidationFailed),
		errors.Is(err, gateway.ErrProxyNotRegisteredForMainAccount):
		return http.StatusUnauthorized
	case errors.Is(err, balance.ErrNotEnoughFreeBalance),
		errors.Is(err, balance.ErrNotEnoughReservedBalance),
		errors.Is(err, balance.ErrAccountOrAsset),
		errors.Is(err, orderbook.ErrOrderNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
