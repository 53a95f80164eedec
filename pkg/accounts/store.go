package accounts

import "sync"

// Store is the combined accounts registry and nonce store. The two share
// one lock so that registration and nonce initialization commit
// atomically.
type Store struct {
	mu      sync.RWMutex
	proxies map[AccountId][]AccountId
	nonces  map[AccountId]uint32
}

// New returns an empty accounts/nonce store.
func New() *Store {
	return &Store{
		proxies: make(map[AccountId][]AccountId),
		nonces:  make(map[AccountId]uint32),
	}
}

// AddMain registers a new main account with an empty proxy set.
func (s *Store) AddMain(a AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proxies[a]; exists {
		return ErrAccountAlreadyRegistered
	}
	s.proxies[a] = nil
	s.nonces[a] = 0
	return nil
}

// RemoveMain deregisters a main account and drops its nonce.
func (s *Store) RemoveMain(a AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proxies[a]; !exists {
		return ErrAccountNotRegistered
	}
	delete(s.proxies, a)
	delete(s.nonces, a)
	return nil
}

// AddProxy authorizes proxy p to act for main account m.
func (s *Store) AddProxy(m, p AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.proxies[m]
	if !exists {
		return ErrAccountNotRegistered
	}
	for _, existing := range list {
		if existing == p {
			return ErrProxyAlreadyRegistered
		}
	}
	s.proxies[m] = append(list, p)
	return nil
}

// RemoveProxy revokes proxy p's authorization for main account m.
func (s *Store) RemoveProxy(m, p AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.proxies[m]
	if !exists {
		return ErrAccountNotRegistered
	}
	for i, existing := range list {
		if existing == p {
			s.proxies[m] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrProxyNotRegistered
}

// IsMain reports whether a is a registered main account.
func (s *Store) IsMain(a AccountId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.proxies[a]
	return exists
}

// IsProxy reports whether p is an authorized proxy of main account m.
func (s *Store) IsProxy(m, p AccountId) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, exists := s.proxies[m]
	if !exists {
		return false, ErrMainAccountNotRegistered
	}
	for _, existing := range list {
		if existing == p {
			return true, nil
		}
	}
	return false, nil
}

// Proxies returns a copy of main account m's proxy list.
func (s *Store) Proxies(m AccountId) ([]AccountId, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, exists := s.proxies[m]
	if !exists {
		return nil, ErrMainAccountNotRegistered
	}
	out := make([]AccountId, len(list))
	copy(out, list)
	return out, nil
}

// InitializeNonce idempotently sets account a's nonce to zero if absent.
func (s *Store) InitializeNonce(a AccountId) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nonces[a]; !exists {
		s.nonces[a] = 0
	}
}

// ReadNonce returns the current stored nonce for a.
func (s *Store) ReadNonce(a AccountId) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nonces[a]
	if !exists {
		return 0, ErrNonceUninitialized
	}
	return n, nil
}

// IncrementNonce advances a's nonce by one.
func (s *Store) IncrementNonce(a AccountId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nonces[a]
	if !exists {
		return ErrNonceUninitialized
	}
	s.nonces[a] = n + 1
	return nil
}

// RemoveNonce drops account a's nonce entry.
func (s *Store) RemoveNonce(a AccountId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nonces, a)
}

// ValidateAndIncrement atomically checks that a's stored nonce equals
// claimed, and if so increments it. On mismatch nothing is mutated.
func (s *Store) ValidateAndIncrement(a AccountId, claimed uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.nonces[a]
	if !exists {
		return ErrNonceUninitialized
	}
	if current != claimed {
		return ErrNonceValidationFailed
	}
	s.nonces[a] = current + 1
	return nil
}
