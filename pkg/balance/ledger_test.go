package balance

import (
	"testing"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
)

func acct(b byte) accounts.AccountId {
	var a accounts.AccountId
	a[0] = b
	return a
}

func amt(s string) fixedpoint.Amount {
	a, err := fixedpoint.Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestDepositWithdrawCreatesAndDebitsCell(t *testing.T) {
	l := New()
	alice := acct(1)
	usd := Asset(1)

	l.Deposit(alice, usd, amt("100.0"))
	b, err := l.Get(alice, usd)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fixedpoint.Cmp(b.Free, amt("100.0")) != 0 {
		t.Fatalf("free = %s, want 100.0", b.Free)
	}

	if err := l.Withdraw(alice, usd, amt("40.0")); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	b, _ = l.Get(alice, usd)
	if fixedpoint.Cmp(b.Free, amt("60.0")) != 0 {
		t.Fatalf("free after withdraw = %s, want 60.0", b.Free)
	}

	if err := l.Withdraw(alice, usd, amt("1000.0")); err != ErrNotEnoughFreeBalance {
		t.Fatalf("overdrawn withdraw = %v", err)
	}
}

// Reserve and unreserve move exactly x between free and reserved.
func TestReserveUnreserveExactTransfer(t *testing.T) {
	l := New()
	alice := acct(1)
	usd := Asset(1)
	l.Deposit(alice, usd, amt("100.0"))

	if err := l.Reserve(alice, usd, amt("30.0")); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	b, _ := l.Get(alice, usd)
	if fixedpoint.Cmp(b.Free, amt("70.0")) != 0 || fixedpoint.Cmp(b.Reserved, amt("30.0")) != 0 {
		t.Fatalf("after reserve: free=%s reserved=%s, want 70.0/30.0", b.Free, b.Reserved)
	}

	if err := l.Unreserve(alice, usd, amt("30.0")); err != nil {
		t.Fatalf("Unreserve: %v", err)
	}
	b, _ = l.Get(alice, usd)
	if fixedpoint.Cmp(b.Free, amt("100.0")) != 0 || !b.Reserved.IsZero() {
		t.Fatalf("after unreserve: free=%s reserved=%s, want 100.0/0", b.Free, b.Reserved)
	}
}

func TestReserveInsufficientFreeFails(t *testing.T) {
	l := New()
	alice := acct(1)
	usd := Asset(1)
	l.Deposit(alice, usd, amt("10.0"))

	if err := l.Reserve(alice, usd, amt("20.0")); err != ErrNotEnoughFreeBalance {
		t.Fatalf("Reserve over-free = %v", err)
	}
}

func TestUnreserveInsufficientReservedFails(t *testing.T) {
	l := New()
	alice := acct(1)
	usd := Asset(1)
	l.Deposit(alice, usd, amt("10.0"))
	l.Reserve(alice, usd, amt("5.0"))

	if err := l.Unreserve(alice, usd, amt("20.0")); err != ErrNotEnoughReservedBalance {
		t.Fatalf("Unreserve over-reserved = %v", err)
	}
}

func TestTransferMovesFreeBalanceBothLegs(t *testing.T) {
	l := New()
	alice, bob := acct(1), acct(2)
	usd := Asset(1)
	l.Deposit(alice, usd, amt("50.0"))

	if err := l.Transfer(alice, bob, usd, amt("20.0")); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	aliceBal, _ := l.Get(alice, usd)
	bobBal, _ := l.Get(bob, usd)
	if fixedpoint.Cmp(aliceBal.Free, amt("30.0")) != 0 {
		t.Fatalf("alice free = %s, want 30.0", aliceBal.Free)
	}
	if fixedpoint.Cmp(bobBal.Free, amt("20.0")) != 0 {
		t.Fatalf("bob free = %s, want 20.0", bobBal.Free)
	}
}

// For any sequence of operations on one (account,asset), free+reserved
// equals net deposited minus net withdrawn, regardless of interleaved
// reserve/unreserve pairs.
func TestFreePlusReservedConservedAcrossOperations(t *testing.T) {
	l := New()
	alice := acct(1)
	usd := Asset(1)

	l.Deposit(alice, usd, amt("100.0"))
	l.Reserve(alice, usd, amt("40.0"))
	l.Unreserve(alice, usd, amt("10.0"))
	l.Reserve(alice, usd, amt("5.0"))
	if err := l.Withdraw(alice, usd, amt("20.0")); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	l.Deposit(alice, usd, amt("15.0"))

	b, _ := l.Get(alice, usd)
	total, ok := fixedpoint.Add(b.Free, b.Reserved)
	if !ok {
		t.Fatalf("free+reserved overflowed")
	}
	// net deposited 115.0, net withdrawn 20.0 => 95.0
	if fixedpoint.Cmp(total, amt("95.0")) != 0 {
		t.Fatalf("free+reserved = %s, want 95.0", total)
	}
}

func TestGetUnknownCellFails(t *testing.T) {
	l := New()
	if _, err := l.Get(acct(1), Asset(1)); err != ErrAccountOrAsset {
		t.Fatalf("Get on unknown cell = %v", err)
	}
}
