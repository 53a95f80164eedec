package accounts

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/sigil-dex/tee-core/pkg/mirror"
)

func entryFor(a AccountId, nonce uint32) mirror.Entry {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(nonce); err != nil {
		panic(err)
	}
	key := make([]byte, len(a))
	copy(key, a.Bytes())
	return mirror.Entry{Key: key, Value: buf.Bytes()}
}

func TestExportRestoreNoncesRoundTrip(t *testing.T) {
	s := New()
	alice := acct(1)
	bob := acct(2)

	if err := s.AddMain(alice); err != nil {
		t.Fatalf("AddMain alice: %v", err)
	}
	if err := s.AddMain(bob); err != nil {
		t.Fatalf("AddMain bob: %v", err)
	}
	if err := s.ValidateAndIncrement(alice, 0); err != nil {
		t.Fatalf("ValidateAndIncrement: %v", err)
	}
	if err := s.ValidateAndIncrement(alice, 1); err != nil {
		t.Fatalf("ValidateAndIncrement: %v", err)
	}

	entries := s.ExportNonces()

	restored := New()
	if err := restored.AddMain(alice); err != nil {
		t.Fatalf("AddMain alice (restored): %v", err)
	}
	if err := restored.AddMain(bob); err != nil {
		t.Fatalf("AddMain bob (restored): %v", err)
	}
	if err := restored.RestoreNonces(entries); err != nil {
		t.Fatalf("RestoreNonces: %v", err)
	}

	n, err := restored.ReadNonce(alice)
	if err != nil {
		t.Fatalf("ReadNonce alice: %v", err)
	}
	if n != 2 {
		t.Fatalf("alice nonce = %d, want 2", n)
	}

	n, err = restored.ReadNonce(bob)
	if err != nil {
		t.Fatalf("ReadNonce bob: %v", err)
	}
	if n != 0 {
		t.Fatalf("bob nonce = %d, want 0", n)
	}
}

func TestRestoreNoncesDropsUnregisteredAccounts(t *testing.T) {
	s := New()
	alice := acct(1)
	if err := s.AddMain(alice); err != nil {
		t.Fatalf("AddMain: %v", err)
	}
	if err := s.ValidateAndIncrement(alice, 0); err != nil {
		t.Fatalf("ValidateAndIncrement: %v", err)
	}
	entries := s.ExportNonces()

	// ghost never gets registered in the restored store.
	ghost := acct(9)
	s2 := New()
	if err := s2.RestoreNonces(append(entries, entryFor(ghost, 5))); err != nil {
		t.Fatalf("RestoreNonces: %v", err)
	}
	if _, err := s2.ReadNonce(ghost); err != ErrNonceUninitialized {
		t.Fatalf("ghost nonce = %v, want ErrNonceUninitialized", err)
	}
}
