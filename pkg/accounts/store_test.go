package accounts

import (
	"sync"
	"testing"
)

func acct(b byte) AccountId {
	var a AccountId
	a[0] = b
	return a
}

func TestRegistryLifecycle(t *testing.T) {
	s := New()
	alice := acct(1)

	if err := s.AddMain(alice); err != nil {
		t.Fatalf("AddMain: %v", err)
	}
	if err := s.AddMain(alice); err != ErrAccountAlreadyRegistered {
		t.Fatalf("AddMain duplicate = %v, want ErrAccountAlreadyRegistered", err)
	}
	if !s.IsMain(alice) {
		t.Fatalf("IsMain(alice) = false")
	}

	paul := acct(2)
	if err := s.AddProxy(alice, paul); err != nil {
		t.Fatalf("AddProxy: %v", err)
	}
	if err := s.AddProxy(alice, paul); err != ErrProxyAlreadyRegistered {
		t.Fatalf("AddProxy duplicate = %v", err)
	}
	ok, err := s.IsProxy(alice, paul)
	if err != nil || !ok {
		t.Fatalf("IsProxy(alice,paul) = %v,%v, want true,nil", ok, err)
	}
	if _, err := s.IsProxy(acct(99), paul); err != ErrMainAccountNotRegistered {
		t.Fatalf("IsProxy on unregistered main = %v", err)
	}

	if err := s.RemoveProxy(alice, paul); err != nil {
		t.Fatalf("RemoveProxy: %v", err)
	}
	ok, _ = s.IsProxy(alice, paul)
	if ok {
		t.Fatalf("proxy still registered after removal")
	}

	if err := s.RemoveMain(alice); err != nil {
		t.Fatalf("RemoveMain: %v", err)
	}
	if s.IsMain(alice) {
		t.Fatalf("IsMain(alice) = true after removal")
	}
}

// ValidateAndIncrement succeeds exactly when stored==claimed, and the
// stored nonce is claimed+1 afterwards; on failure nothing changes.
func TestValidateAndIncrementNonce(t *testing.T) {
	s := New()
	alice := acct(1)
	s.InitializeNonce(alice)

	if err := s.ValidateAndIncrement(alice, 0); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	n, _ := s.ReadNonce(alice)
	if n != 1 {
		t.Fatalf("nonce after first validate = %d, want 1", n)
	}

	if err := s.ValidateAndIncrement(alice, 1); err != nil {
		t.Fatalf("second validate: %v", err)
	}
	n, _ = s.ReadNonce(alice)
	if n != 2 {
		t.Fatalf("nonce after second validate = %d, want 2", n)
	}

	// A replay of nonce 1 fails, and must not mutate state.
	if err := s.ValidateAndIncrement(alice, 1); err != ErrNonceValidationFailed {
		t.Fatalf("replayed validate = %v, want ErrNonceValidationFailed", err)
	}
	n, _ = s.ReadNonce(alice)
	if n != 2 {
		t.Fatalf("nonce mutated by failed validate: %d, want unchanged 2", n)
	}
}

func TestValidateAndIncrementRequiresInitialization(t *testing.T) {
	s := New()
	if err := s.ValidateAndIncrement(acct(1), 0); err != ErrNonceUninitialized {
		t.Fatalf("validate on uninitialized account = %v", err)
	}
}

// Two concurrent callers racing ValidateAndIncrement for the same
// account never both succeed with the same claimed nonce: the lock
// serializes them so exactly one success occurs per nonce value.
func TestConcurrentValidateAndIncrementIsSerialized(t *testing.T) {
	s := New()
	alice := acct(1)
	s.InitializeNonce(alice)

	const attempts = 200
	var wg sync.WaitGroup
	successes := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			successes[i] = s.ValidateAndIncrement(alice, uint32(i)) == nil
		}(i)
	}
	wg.Wait()

	successCount := 0
	for _, ok := range successes {
		if ok {
			successCount++
		}
	}
	final, err := s.ReadNonce(alice)
	if err != nil {
		t.Fatalf("ReadNonce: %v", err)
	}
	if int(final) != successCount {
		t.Fatalf("final nonce %d does not match success count %d", final, successCount)
	}
}
