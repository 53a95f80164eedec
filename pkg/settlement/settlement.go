// Package settlement applies venue trade events to the balance ledger
// and orderbook mirror as one all-or-nothing unit: the full plan is
// computed and validated in a local scratch structure before any store
// is touched.
package settlement

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/domain"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
)

// Settlement applies TradeEvents to the balance ledger and orderbook
// mirror. mu serializes trade application end to end, one lock spanning
// both stores; the stores' own locks still guard each against concurrent
// gateway access.
type Settlement struct {
	mu       sync.Mutex
	balances *balance.Ledger
	orders   *orderbook.Store
	log      *zap.Logger
}

// New wires a Settlement from its store handles.
func New(balances *balance.Ledger, orders *orderbook.Store, log *zap.Logger) *Settlement {
	if log == nil {
		log = zap.NewNop()
	}
	return &Settlement{balances: balances, orders: orders, log: log}
}

// leg is one planned balance move: debit from's reserved balance, credit
// to's free balance, for amt of asset.
type leg struct {
	from, to accounts.AccountId
	asset    balance.AssetId
	amount   fixedpoint.Amount
}

// plan is the settlement scratch structure: fully computed and validated
// against current store state before any store is mutated.
type plan struct {
	legs         [2]leg
	makerOrderID orderbook.OrderId
	takerOrderID orderbook.OrderId
	baseAmount   fixedpoint.Amount
}

// Apply settles event against the orderbook and balance ledger. If
// either order id is unknown the event is logged and dropped (it targets
// a peer worker). An arithmetic overflow or a validation failure against
// current balances/quantities aborts the settlement without mutating
// anything and returns an error: log, refuse, leave state untouched, but
// never crash the process.
func (s *Settlement) Apply(event domain.TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	makerOrder, err := s.orders.Read(event.MakerOrderID)
	if err != nil {
		s.log.Info("settlement: maker order unknown, dropping trade event",
			zap.ByteString("maker_order_id", event.MakerOrderID))
		return nil
	}
	takerOrder, err := s.orders.Read(event.TakerOrderID)
	if err != nil {
		s.log.Info("settlement: taker order unknown, dropping trade event",
			zap.ByteString("taker_order_id", event.TakerOrderID))
		return nil
	}

	p, err := s.buildPlan(event, makerOrder, takerOrder)
	if err != nil {
		return err
	}

	for _, l := range p.legs {
		if err := s.balances.DecreaseReserved(l.from, l.asset, l.amount); err != nil {
			s.log.Error("settlement: reserved balance underflow applying trade, state left inconsistent",
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		if err := s.balances.IncreaseFree(l.to, l.asset, l.amount); err != nil {
			s.log.Error("settlement: free balance overflow applying trade, state left inconsistent",
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
	}

	if _, _, err := s.orders.DecrementQuantity(p.makerOrderID, p.baseAmount); err != nil {
		s.log.Error("settlement: maker order quantity underflow applying trade, state left inconsistent",
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if _, _, err := s.orders.DecrementQuantity(p.takerOrderID, p.baseAmount); err != nil {
		s.log.Error("settlement: taker order quantity underflow applying trade, state left inconsistent",
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return nil
}

// buildPlan computes the two balance legs and validates every
// precondition against current store state without mutating anything.
// Every order the orderbook mirror holds reserved its matching asset at
// place_order time (market/post-only/fill-or-kill bids are
// NotImplemented and never reach the orderbook), so both legs always
// debit from reserved, never free.
func (s *Settlement) buildPlan(event domain.TradeEvent, makerOrder, takerOrder orderbook.Order) (plan, error) {
	baseAmount := event.Amount
	quoteAmount, ok := fixedpoint.MulDiv(event.Price, event.Amount)
	if !ok {
		s.log.Error("settlement: price*amount overflow, aborting trade")
		return plan{}, ErrOverflow
	}

	var seller, buyer orderbook.Order
	if makerOrder.Side == orderbook.SideAsk {
		seller, buyer = makerOrder, takerOrder
	} else {
		seller, buyer = takerOrder, makerOrder
	}

	if fixedpoint.Cmp(makerOrder.Quantity, baseAmount) < 0 || fixedpoint.Cmp(takerOrder.Quantity, baseAmount) < 0 {
		return plan{}, fmt.Errorf("%w: trade amount exceeds an order's remaining quantity", ErrInvariantViolation)
	}

	sellerBal, err := s.balances.Get(seller.User, seller.Market.Base)
	if err != nil || fixedpoint.Cmp(sellerBal.Reserved, baseAmount) < 0 {
		return plan{}, fmt.Errorf("%w: seller reserved base balance insufficient", ErrInvariantViolation)
	}
	buyerBal, err := s.balances.Get(buyer.User, buyer.Market.Quote)
	if err != nil || fixedpoint.Cmp(buyerBal.Reserved, quoteAmount) < 0 {
		return plan{}, fmt.Errorf("%w: buyer reserved quote balance insufficient", ErrInvariantViolation)
	}

	return plan{
		legs: [2]leg{
			{from: seller.User, to: buyer.User, asset: seller.Market.Base, amount: baseAmount},
			{from: buyer.User, to: seller.User, asset: buyer.Market.Quote, amount: quoteAmount},
		},
		makerOrderID: event.MakerOrderID,
		takerOrderID: event.TakerOrderID,
		baseAmount:   baseAmount,
	}, nil
}
