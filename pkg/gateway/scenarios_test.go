package gateway_test

import (
	"errors"
	"testing"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/domain"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/gateway"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
	"github.com/sigil-dex/tee-core/pkg/outbox"
	"github.com/sigil-dex/tee-core/pkg/requestcache"
	"github.com/sigil-dex/tee-core/pkg/settlement"
)

// fakeSender records every frame the gateway would have sent to the
// venue, standing in for the live WebSocket connection. These tests
// assert on trusted-core state, never on wire bytes.
type fakeSender struct {
	sent [][]byte
}

func (f *fakeSender) Send(frame []byte) error {
	f.sent = append(f.sent, frame)
	return nil
}

func amt(t *testing.T, s string) fixedpoint.Amount {
	t.Helper()
	a, err := fixedpoint.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return a
}

type harness struct {
	accounts *accounts.Store
	balances *balance.Ledger
	orders   *orderbook.Store
	create   *requestcache.CreateOrderCache
	cancel   *requestcache.CancelOrderCache
	sender   *fakeSender
	gw       *gateway.Gateway
	settle   *settlement.Settlement
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		accounts: accounts.New(),
		balances: balance.New(),
		orders:   orderbook.New(),
		create:   requestcache.NewCreateOrderCache(),
		cancel:   requestcache.NewCancelOrderCache(),
		sender:   &fakeSender{},
	}
	gw, err := gateway.New(h.accounts, h.balances, h.orders, h.create, h.cancel, outbox.New(), h.sender, nil)
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	h.gw = gw
	h.settle = settlement.New(h.balances, h.orders, nil)
	return h
}

var (
	btc    = balance.Asset(1)
	usd    = balance.Asset(2)
	btcUSD = orderbook.MarketId{Base: btc, Quote: usd}
)

// confirmOrder simulates the venue's create_order response arriving for
// the given request id, finalizing the pending order into the orderbook
// mirror under orderID.
func confirmOrder(h *harness, rid requestcache.RequestId, orderID orderbook.OrderId) {
	h.gw.ProcessCreateOrder(rid, orderID)
}

// Two registered accounts place matching limit orders and a trade event
// settles them in full.
func TestHappyPathMatch(t *testing.T) {
	h := newHarness(t)
	alice := accounts.AccountId{0x01}
	bob := accounts.AccountId{0x02}
	if err := h.accounts.AddMain(alice); err != nil {
		t.Fatalf("AddMain alice: %v", err)
	}
	if err := h.accounts.AddMain(bob); err != nil {
		t.Fatalf("AddMain bob: %v", err)
	}
	h.balances.Initialize(alice, btc)
	h.balances.Initialize(bob, usd)
	h.balances.Deposit(alice, btc, amt(t, "500.0"))
	h.balances.Deposit(bob, usd, amt(t, "500.0"))

	price := amt(t, "1.0")
	qty := amt(t, "50.0")

	aliceRID, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: alice, ClaimedNonce: 0, Nickname: "alice",
		Market: btcUSD, Kind: orderbook.KindLimit, Side: orderbook.SideAsk,
		Quantity: qty, Price: &price,
	})
	if err != nil {
		t.Fatalf("alice PlaceOrder: %v", err)
	}
	bobRID, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: bob, ClaimedNonce: 0, Nickname: "bob",
		Market: btcUSD, Kind: orderbook.KindLimit, Side: orderbook.SideBid,
		Quantity: qty, Price: &price,
	})
	if err != nil {
		t.Fatalf("bob PlaceOrder: %v", err)
	}

	makerID := orderbook.OrderId("order-alice")
	takerID := orderbook.OrderId("order-bob")
	confirmOrder(h, aliceRID, makerID)
	confirmOrder(h, bobRID, takerID)

	event := domain.TradeEvent{
		Market: btcUSD, Price: price, Amount: qty,
		MakerOrderID: makerID, Maker: alice, MakerSide: orderbook.SideAsk,
		TakerOrderID: takerID, Taker: bob,
	}
	if err := h.settle.Apply(event); err != nil {
		t.Fatalf("settlement.Apply: %v", err)
	}

	aliceBTC, _ := h.balances.Get(alice, btc)
	aliceUSD, _ := h.balances.Get(alice, usd)
	bobBTC, _ := h.balances.Get(bob, btc)
	bobUSD, _ := h.balances.Get(bob, usd)

	if fixedpoint.Cmp(aliceBTC.Free, amt(t, "450.0")) != 0 || !aliceBTC.Reserved.IsZero() {
		t.Fatalf("alice BTC = %+v", aliceBTC)
	}
	if fixedpoint.Cmp(aliceUSD.Free, amt(t, "50.0")) != 0 || !aliceUSD.Reserved.IsZero() {
		t.Fatalf("alice USD = %+v", aliceUSD)
	}
	if fixedpoint.Cmp(bobUSD.Free, amt(t, "450.0")) != 0 || !bobUSD.Reserved.IsZero() {
		t.Fatalf("bob USD = %+v", bobUSD)
	}
	if fixedpoint.Cmp(bobBTC.Free, amt(t, "50.0")) != 0 || !bobBTC.Reserved.IsZero() {
		t.Fatalf("bob BTC = %+v", bobBTC)
	}
	if _, err := h.orders.Read(makerID); err == nil {
		t.Fatalf("maker order still present")
	}
	if _, err := h.orders.Read(takerID); err == nil {
		t.Fatalf("taker order still present")
	}
}

// A limit bid whose price*quantity exceeds the free quote balance is
// rejected with no residue.
func TestInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	alice := accounts.AccountId{0x01}
	if err := h.accounts.AddMain(alice); err != nil {
		t.Fatalf("AddMain: %v", err)
	}
	h.balances.Initialize(alice, usd)
	h.balances.Deposit(alice, usd, amt(t, "100.0"))

	price := amt(t, "2.0")
	qty := amt(t, "100.0")
	_, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: alice, ClaimedNonce: 0, Nickname: "alice",
		Market: btcUSD, Kind: orderbook.KindLimit, Side: orderbook.SideBid,
		Quantity: qty, Price: &price,
	})
	if !errors.Is(err, balance.ErrNotEnoughFreeBalance) {
		t.Fatalf("PlaceOrder error = %v, want ErrNotEnoughFreeBalance", err)
	}

	bal, _ := h.balances.Get(alice, usd)
	if fixedpoint.Cmp(bal.Free, amt(t, "100.0")) != 0 || !bal.Reserved.IsZero() {
		t.Fatalf("balance mutated despite rejected order: %+v", bal)
	}
	if len(h.sender.sent) != 0 {
		t.Fatalf("a create_order frame was sent despite rejected reserve")
	}
}

// A replayed claimed nonce fails validation and leaves no state behind.
func TestNonceReplay(t *testing.T) {
	h := newHarness(t)
	alice := accounts.AccountId{0x01}
	if err := h.accounts.AddMain(alice); err != nil {
		t.Fatalf("AddMain: %v", err)
	}
	h.balances.Initialize(alice, btc)
	h.balances.Deposit(alice, btc, amt(t, "1000.0"))

	qty := amt(t, "1.0")
	place := func(nonce uint32) error {
		_, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
			Signer: alice, ClaimedNonce: nonce, Nickname: "alice",
			Market: btcUSD, Kind: orderbook.KindMarket, Side: orderbook.SideAsk,
			Quantity: qty,
		})
		return err
	}

	if err := place(0); err != nil {
		t.Fatalf("first place_order (nonce 0): %v", err)
	}
	if err := place(1); err != nil {
		t.Fatalf("second place_order (nonce 1): %v", err)
	}
	if err := place(1); !errors.Is(err, accounts.ErrNonceValidationFailed) {
		t.Fatalf("third place_order (replayed nonce 1) = %v, want ErrNonceValidationFailed", err)
	}

	n, err := h.accounts.ReadNonce(alice)
	if err != nil || n != 2 {
		t.Fatalf("stored nonce = %d,%v, want 2,nil", n, err)
	}
}

// A resting ask is partially filled, then cancelled; the remaining
// reservation is released exactly.
func TestPartialFillThenCancel(t *testing.T) {
	h := newHarness(t)
	alice := accounts.AccountId{0x01}
	if err := h.accounts.AddMain(alice); err != nil {
		t.Fatalf("AddMain: %v", err)
	}
	h.balances.Initialize(alice, btc)
	h.balances.Deposit(alice, btc, amt(t, "1000.0"))

	price := amt(t, "1.0")
	qty := amt(t, "100.0")
	rid, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: alice, ClaimedNonce: 0, Nickname: "alice",
		Market: btcUSD, Kind: orderbook.KindLimit, Side: orderbook.SideAsk,
		Quantity: qty, Price: &price,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	orderID := orderbook.OrderId("order-alice-partial")
	confirmOrder(h, rid, orderID)

	// A counterparty taker order fills 30·U against Alice's resting ask.
	takerID := orderbook.OrderId("order-taker")
	h.balances.Initialize(accounts.AccountId{0x09}, usd)
	h.balances.Deposit(accounts.AccountId{0x09}, usd, amt(t, "30.0"))
	if err := h.balances.Reserve(accounts.AccountId{0x09}, usd, amt(t, "30.0")); err != nil {
		t.Fatalf("reserve taker quote: %v", err)
	}
	h.orders.Add(takerID, orderbook.Order{
		User: accounts.AccountId{0x09}, Market: btcUSD,
		Kind: orderbook.KindLimit, Side: orderbook.SideBid,
		Quantity: amt(t, "30.0"), Price: &price,
	})

	event := domain.TradeEvent{
		Market: btcUSD, Price: price, Amount: amt(t, "30.0"),
		MakerOrderID: orderID, Maker: alice, MakerSide: orderbook.SideAsk,
		TakerOrderID: takerID, Taker: accounts.AccountId{0x09},
	}
	if err := h.settle.Apply(event); err != nil {
		t.Fatalf("settlement.Apply: %v", err)
	}

	aliceBTC, _ := h.balances.Get(alice, btc)
	aliceUSD, _ := h.balances.Get(alice, usd)
	if fixedpoint.Cmp(aliceBTC.Reserved, amt(t, "70.0")) != 0 {
		t.Fatalf("alice reserved BTC after partial fill = %v, want 70.0", aliceBTC.Reserved)
	}
	if fixedpoint.Cmp(aliceUSD.Free, amt(t, "30.0")) != 0 {
		t.Fatalf("alice free USD after partial fill = %v, want 30.0", aliceUSD.Free)
	}

	order, err := h.orders.Read(orderID)
	if err != nil || fixedpoint.Cmp(order.Quantity, amt(t, "70.0")) != 0 {
		t.Fatalf("remaining order = %+v, %v, want quantity 70.0", order, err)
	}

	if _, err := h.gw.CancelOrder(gateway.CancelOrderRequest{
		Signer: alice, ClaimedNonce: 1, MarketSymbol: "btcusd", OrderID: orderID,
	}); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if err := h.gw.OnCancelAck(orderID); err != nil {
		t.Fatalf("OnCancelAck: %v", err)
	}

	aliceBTC, _ = h.balances.Get(alice, btc)
	if !aliceBTC.Reserved.IsZero() {
		t.Fatalf("alice reserved BTC after cancel = %v, want 0", aliceBTC.Reserved)
	}
	if _, err := h.orders.Read(orderID); err == nil {
		t.Fatalf("cancelled order still present")
	}
}

// A registered proxy may act for its main account (incrementing the
// main's nonce, not its own); an unregistered claim is rejected.
func TestProxyAuthorization(t *testing.T) {
	h := newHarness(t)
	alice := accounts.AccountId{0x01}
	paul := accounts.AccountId{0x03}
	if err := h.accounts.AddMain(alice); err != nil {
		t.Fatalf("AddMain alice: %v", err)
	}
	if err := h.accounts.AddProxy(alice, paul); err != nil {
		t.Fatalf("AddProxy: %v", err)
	}
	h.balances.Initialize(alice, btc)
	h.balances.Deposit(alice, btc, amt(t, "10.0"))

	qty := amt(t, "1.0")
	_, err := h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: paul, Main: &alice, ClaimedNonce: 0, Nickname: "alice",
		Market: btcUSD, Kind: orderbook.KindMarket, Side: orderbook.SideAsk,
		Quantity: qty,
	})
	if err != nil {
		t.Fatalf("proxy PlaceOrder: %v", err)
	}
	n, err := h.accounts.ReadNonce(alice)
	if err != nil || n != 1 {
		t.Fatalf("alice nonce = %d,%v, want 1,nil", n, err)
	}

	_, err = h.gw.PlaceOrder(gateway.PlaceOrderRequest{
		Signer: paul, ClaimedNonce: 0, Nickname: "paul",
		Market: btcUSD, Kind: orderbook.KindMarket, Side: orderbook.SideAsk,
		Quantity: qty,
	})
	if !errors.Is(err, accounts.ErrMainAccountNotRegistered) {
		t.Fatalf("unclaimed-main PlaceOrder error = %v, want ErrMainAccountNotRegistered", err)
	}
}
