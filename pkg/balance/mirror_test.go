package balance

import (
	"testing"

	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/mirror"
)

func TestExportRestoreRoundTrip(t *testing.T) {
	l := New()
	alice := acct(1)
	bob := acct(2)
	usd := Asset(1)
	btc := Asset(2)

	l.Deposit(alice, usd, amt("100.0"))
	l.Deposit(alice, btc, amt("5.0"))
	if err := l.Reserve(alice, usd, amt("20.0")); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	l.Deposit(bob, usd, amt("7.5"))

	entries := l.Export()

	restored := New()
	if err := restored.Restore(entries); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	aliceUSD, err := restored.Get(alice, usd)
	if err != nil {
		t.Fatalf("Get alice/usd: %v", err)
	}
	if fixedpoint.Cmp(aliceUSD.Free, amt("80.0")) != 0 || fixedpoint.Cmp(aliceUSD.Reserved, amt("20.0")) != 0 {
		t.Fatalf("alice usd = %+v", aliceUSD)
	}

	aliceBTC, err := restored.Get(alice, btc)
	if err != nil {
		t.Fatalf("Get alice/btc: %v", err)
	}
	if fixedpoint.Cmp(aliceBTC.Free, amt("5.0")) != 0 {
		t.Fatalf("alice btc = %+v", aliceBTC)
	}

	bobUSD, err := restored.Get(bob, usd)
	if err != nil {
		t.Fatalf("Get bob/usd: %v", err)
	}
	if fixedpoint.Cmp(bobUSD.Free, amt("7.5")) != 0 {
		t.Fatalf("bob usd = %+v", bobUSD)
	}
}

// TestExportRestoreThroughMirrorSnapshot exercises the full persistence
// round trip: export, feed a mirror, snapshot to disk, reload, restore
// into a fresh ledger, and compare against the original.
func TestExportRestoreThroughMirrorSnapshot(t *testing.T) {
	dir := t.TempDir()

	l := New()
	alice := acct(9)
	usd := Asset(3)
	l.Deposit(alice, usd, amt("42.0"))
	if err := l.Reserve(alice, usd, amt("10.0")); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	m := mirror.New("balance", nil)
	m.Load(l.Export())
	if err := m.Snapshot(dir); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	entries, err := m.Restore(dir)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	reloaded := New()
	if err := reloaded.Restore(entries); err != nil {
		t.Fatalf("Ledger.Restore: %v", err)
	}

	got, err := reloaded.Get(alice, usd)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fixedpoint.Cmp(got.Free, amt("32.0")) != 0 || fixedpoint.Cmp(got.Reserved, amt("10.0")) != 0 {
		t.Fatalf("reloaded balance = %+v, want free=32.0 reserved=10.0", got)
	}
}
