package requestcache

import (
	"testing"
	"time"

	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

func TestCreateOrderCacheInsertRemove(t *testing.T) {
	c := NewCreateOrderCache()
	order := orderbook.Order{Kind: orderbook.KindLimit}

	id := c.Insert(order)
	second := c.Insert(order)
	if second != id+1 {
		t.Fatalf("request ids not monotonic: %d then %d", id, second)
	}

	got, ok := c.Remove(id)
	if !ok {
		t.Fatalf("Remove reported missing entry")
	}
	if got.Kind != order.Kind {
		t.Fatalf("Remove returned wrong order")
	}
	if _, ok := c.Remove(id); ok {
		t.Fatalf("Remove succeeded twice for the same id")
	}
}

func TestCreateOrderCacheSweepRespectsMinAge(t *testing.T) {
	c := NewCreateOrderCache()
	id := c.Insert(orderbook.Order{})

	if swept := c.Sweep(60 * time.Second); len(swept) != 0 {
		t.Fatalf("fresh entry swept: %v", swept)
	}
	if swept := c.Sweep(0); len(swept) != 1 || swept[0] != id {
		t.Fatalf("Sweep(0) = %v, want [%d]", swept, id)
	}
	if _, ok := c.Peek(id); ok {
		t.Fatalf("entry still present after sweep")
	}
}

func TestCancelOrderCacheInsertRemove(t *testing.T) {
	c := NewCancelOrderCache()
	id := orderbook.OrderId("order-1")

	c.Insert(id)
	if !c.InFlight(id) {
		t.Fatalf("InFlight = false right after Insert")
	}
	if !c.Remove(id) {
		t.Fatalf("Remove reported missing entry")
	}
	if c.InFlight(id) {
		t.Fatalf("InFlight = true after Remove")
	}
	if c.Remove(id) {
		t.Fatalf("Remove succeeded twice")
	}
}
