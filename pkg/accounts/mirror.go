package accounts

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/mirror"
)

// ExportNonces returns the per-account nonce map as mirror.Entry values,
// for the nonce mirror. Only the nonce half of this store is mirrored:
// the proxy registry is rebuilt from the on-chain attested snapshot at
// boot (pkg/boot), not from a local mirror file.
func (s *Store) ExportNonces() []mirror.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]mirror.Entry, 0, len(s.nonces))
	for a, n := range s.nonces {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(n); err != nil {
			panic(fmt.Errorf("accounts: encode mirror entry: %w", err))
		}
		key := make([]byte, len(a))
		copy(key, a.Bytes())
		entries = append(entries, mirror.Entry{Key: key, Value: buf.Bytes()})
	}
	return entries
}

// RestoreNonces overwrites the nonce of each account named in entries
// loaded from a mirror snapshot; nonces of accounts not named there are
// left as they are. Accounts must already be registered (via pkg/boot)
// before their nonces are restored; an entry for an unregistered account
// is dropped rather than silently creating a bare nonce cell, since
// registration is what pkg/boot's attested chain establishes.
func (s *Store) RestoreNonces(entries []mirror.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		var a AccountId
		if len(e.Key) != len(a) {
			return fmt.Errorf("accounts: malformed mirror key (%d bytes)", len(e.Key))
		}
		copy(a[:], e.Key)

		var n uint32
		if err := gob.NewDecoder(bytes.NewReader(e.Value)).Decode(&n); err != nil {
			return fmt.Errorf("accounts: decode mirror entry: %w", err)
		}
		if _, registered := s.proxies[a]; !registered {
			continue
		}
		s.nonces[a] = n
	}
	return nil
}
