package balance

import (
	"sync"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
)

// Ledger is the balance store: one exclusive lock guarding a map from
// (asset, account) to a free/reserved balance pair.
type Ledger struct {
	mu    sync.RWMutex
	cells map[key]Balances
}

// New returns an empty balance ledger.
func New() *Ledger {
	return &Ledger{cells: make(map[key]Balances)}
}

// Initialize creates a zero-balance cell for (a,t) if one is not already
// present. Idempotent.
func (l *Ledger) Initialize(a accounts.AccountId, t AssetId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initializeLocked(key{asset: t, account: a})
}

func (l *Ledger) initializeLocked(k key) {
	if _, exists := l.cells[k]; !exists {
		l.cells[k] = Balances{Free: fixedpoint.Zero(), Reserved: fixedpoint.Zero()}
	}
}

// Get returns the balance cell for (a,t), or ErrAccountOrAsset if absent.
func (l *Ledger) Get(a accounts.AccountId, t AssetId) (Balances, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, exists := l.cells[key{asset: t, account: a}]
	if !exists {
		return Balances{}, ErrAccountOrAsset
	}
	return b, nil
}

// Deposit credits free balance, creating the cell if it did not exist.
// Saturates rather than overflows.
func (l *Ledger) Deposit(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	l.initializeLocked(k)
	b := l.cells[k]
	b.Free = fixedpoint.SaturatingAdd(b.Free, amt)
	l.cells[k] = b
}

// Withdraw debits free balance by amt. Requires free >= amt.
func (l *Ledger) Withdraw(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	b, exists := l.cells[k]
	if !exists {
		return ErrAccountOrAsset
	}
	free, ok := fixedpoint.Sub(b.Free, amt)
	if !ok {
		return ErrNotEnoughFreeBalance
	}
	b.Free = free
	l.cells[k] = b
	return nil
}

// Reserve moves amt from free to reserved under one lock acquisition, so
// no observer ever sees the intermediate decremented-but-not-yet-credited
// state.
func (l *Ledger) Reserve(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	b, exists := l.cells[k]
	if !exists {
		return ErrAccountOrAsset
	}
	free, ok := fixedpoint.Sub(b.Free, amt)
	if !ok {
		return ErrNotEnoughFreeBalance
	}
	b.Free = free
	b.Reserved = fixedpoint.SaturatingAdd(b.Reserved, amt)
	l.cells[k] = b
	return nil
}

// Unreserve moves amt from reserved back to free.
func (l *Ledger) Unreserve(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	b, exists := l.cells[k]
	if !exists {
		return ErrAccountOrAsset
	}
	reserved, ok := fixedpoint.Sub(b.Reserved, amt)
	if !ok {
		return ErrNotEnoughReservedBalance
	}
	b.Reserved = reserved
	b.Free = fixedpoint.SaturatingAdd(b.Free, amt)
	l.cells[k] = b
	return nil
}

// Transfer moves amt of free balance from `from` to `to`, committing both
// legs under one lock acquisition.
func (l *Ledger) Transfer(from, to accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := key{asset: t, account: from}
	fromBal, exists := l.cells[fromKey]
	if !exists {
		return ErrAccountOrAsset
	}
	newFree, ok := fixedpoint.Sub(fromBal.Free, amt)
	if !ok {
		return ErrNotEnoughFreeBalance
	}
	fromBal.Free = newFree
	l.cells[fromKey] = fromBal

	toKey := key{asset: t, account: to}
	l.initializeLocked(toKey)
	toBal := l.cells[toKey]
	toBal.Free = fixedpoint.SaturatingAdd(toBal.Free, amt)
	l.cells[toKey] = toBal
	return nil
}

// DecreaseFree decreases free balance by amt with checked
// (non-saturating) subtraction; returns ErrNotEnoughFreeBalance rather
// than underflowing.
func (l *Ledger) DecreaseFree(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	return l.Withdraw(a, t, amt)
}

// IncreaseFree credits free balance by amt, checked against overflow
// rather than silently saturating, for settlement legs where an overflow
// must abort the whole trade application rather than silently truncate.
func (l *Ledger) IncreaseFree(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	l.initializeLocked(k)
	b := l.cells[k]
	sum, ok := fixedpoint.Add(b.Free, amt)
	if !ok {
		return ErrOverflow
	}
	b.Free = sum
	l.cells[k] = b
	return nil
}

// DecreaseReserved decreases reserved balance by amt with checked
// subtraction, the settlement-path counterpart of Unreserve that does not
// also credit free (the trade consumes the reservation instead of
// releasing it).
func (l *Ledger) DecreaseReserved(a accounts.AccountId, t AssetId, amt fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{asset: t, account: a}
	b, exists := l.cells[k]
	if !exists {
		return ErrAccountOrAsset
	}
	reserved, ok := fixedpoint.Sub(b.Reserved, amt)
	if !ok {
		return ErrNotEnoughReservedBalance
	}
	b.Reserved = reserved
	l.cells[k] = b
	return nil
}
