package orderbook

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/mirror"
)

// Export returns every resting order as a mirror.Entry, for the orderbook
// persistence mirror.
func (s *Store) Export() []mirror.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]mirror.Entry, 0, len(s.orders))
	for k, order := range s.orders {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(order); err != nil {
			panic(fmt.Errorf("orderbook: encode mirror entry: %w", err))
		}
		entries = append(entries, mirror.Entry{Key: []byte(k), Value: buf.Bytes()})
	}
	return entries
}

// Restore replaces the orderbook's contents with entries loaded from a
// mirror snapshot, as the trusted core does on restart.
func (s *Store) Restore(entries []mirror.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make(map[string]Order, len(entries))
	for _, e := range entries {
		var order Order
		if err := gob.NewDecoder(bytes.NewReader(e.Value)).Decode(&order); err != nil {
			return fmt.Errorf("orderbook: decode mirror entry: %w", err)
		}
		orders[string(e.Key)] = order
	}
	s.orders = orders
	return nil
}
