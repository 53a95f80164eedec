package orderbook

import (
	"sync"

	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
)

// Store is the orderbook mirror: one exclusive lock guarding a map from
// OrderId to Order.
type Store struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// New returns an empty orderbook mirror.
func New() *Store {
	return &Store{orders: make(map[string]Order)}
}

// Add inserts order under id, returning the previous value if one already
// existed there (well-behaved callers never reuse an id).
func (s *Store) Add(id OrderId, order Order) (previous Order, hadPrevious bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, hadPrevious = s.orders[id.key()]
	s.orders[id.key()] = order
	return previous, hadPrevious
}

// Read returns the order stored under id.
func (s *Store) Read(id OrderId) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id.key()]
	if !exists {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

// Remove deletes and returns the order stored under id.
func (s *Store) Remove(id OrderId) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id.key()]
	if !exists {
		return Order{}, ErrOrderNotFound
	}
	delete(s.orders, id.key())
	return order, nil
}

// Edit replaces the stored order's quantity and/or price via a
// read-modify-write. It rejects edits that would leave quantity zero;
// callers must cancel instead.
func (s *Store) Edit(id OrderId, newQuantity fixedpoint.Amount, newPrice *fixedpoint.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id.key()]
	if !exists {
		return ErrOrderNotFound
	}
	if newQuantity.IsZero() {
		return ErrZeroQuantityEdit
	}
	order.Quantity = newQuantity
	order.Price = newPrice
	s.orders[id.key()] = order
	return nil
}

// DecrementQuantity subtracts delta from the order's quantity; if the
// result is zero the entry is removed and removed=true is returned. This
// is the contract pkg/settlement drives when applying a fill.
func (s *Store) DecrementQuantity(id OrderId, delta fixedpoint.Amount) (remaining fixedpoint.Amount, removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id.key()]
	if !exists {
		return fixedpoint.Zero(), false, ErrOrderNotFound
	}

	newQty, ok := fixedpoint.Sub(order.Quantity, delta)
	if !ok {
		return fixedpoint.Zero(), false, ErrQuantityUnderflow
	}
	if newQty.IsZero() {
		delete(s.orders, id.key())
		return newQty, true, nil
	}
	order.Quantity = newQty
	s.orders[id.key()] = order
	return newQty, false, nil
}
