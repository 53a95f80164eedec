package settlement

import "errors"

var (
	// ErrOverflow is returned when price*amount overflows the 128-bit
	// fixed-point range while computing the quote leg of a trade.
	ErrOverflow = errors.New("settlement: price*amount overflow")

	// ErrInvariantViolation is returned when the scratch plan's
	// preconditions do not hold against the current store state (e.g. a
	// reserved-balance or order-quantity underflow). Fatal to the
	// settlement attempt: the event is refused and no store is mutated.
	ErrInvariantViolation = errors.New("settlement: invariant violation, refusing to commit")
)
