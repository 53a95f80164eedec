package orderbook

import "errors"

// ErrOrderNotFound is returned by Read/Remove/Edit/DecrementQuantity when
// the requested order id is not present.
var ErrOrderNotFound = errors.New("orderbook: order not found")

// ErrZeroQuantityEdit is returned by Edit when the requested new quantity
// is zero; callers must cancel the order instead.
var ErrZeroQuantityEdit = errors.New("orderbook: edit would leave zero quantity, use cancel instead")

// ErrQuantityUnderflow is returned by DecrementQuantity when the delta
// exceeds the order's remaining quantity. The settlement path validates
// quantities before committing, so hitting this indicates an invariant
// violation upstream.
var ErrQuantityUnderflow = errors.New("orderbook: decrement exceeds remaining quantity")
