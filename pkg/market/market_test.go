package market

import (
	"testing"

	"github.com/sigil-dex/tee-core/pkg/balance"
)

func TestSetMarketsRejectsStaleRequestID(t *testing.T) {
	c := New()
	first := c.NextRequestID()
	second := c.NextRequestID()

	btcusd := Market{Symbol: "btcusd", Base: balance.Asset(1), Quote: balance.Asset(2), Precision: 8}

	if c.SetMarkets(first, []Market{btcusd}) {
		t.Fatalf("SetMarkets accepted a stale request id")
	}
	if _, ok := c.Get("btcusd"); ok {
		t.Fatalf("market cached from a stale response")
	}

	if !c.SetMarkets(second, []Market{btcusd}) {
		t.Fatalf("SetMarkets rejected the current request id")
	}
	got, ok := c.Get("btcusd")
	if !ok || got.Precision != 8 {
		t.Fatalf("Get(btcusd) = %+v, %v", got, ok)
	}
}

func TestListSnapshot(t *testing.T) {
	c := New()
	rid := c.NextRequestID()
	c.SetMarkets(rid, []Market{{Symbol: "dotusd"}, {Symbol: "btcusd"}})

	if len(c.List()) != 2 {
		t.Fatalf("List() returned %d markets, want 2", len(c.List()))
	}
}
