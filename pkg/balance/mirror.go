package balance

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/mirror"
)

// keyBytes encodes a (asset, account) cell key as
// kind(1) || numbered-id(4, big-endian) || account(32), the byte form the
// persistence mirror keys its map by.
func keyBytes(k key) []byte {
	b := make([]byte, 0, 1+4+len(k.account))
	b = append(b, byte(k.asset.Kind))
	var idBuf [4]byte
	binary.BigEndian.PutUint32(idBuf[:], k.asset.Id)
	b = append(b, idBuf[:]...)
	b = append(b, k.account.Bytes()...)
	return b
}

func keyFromBytes(b []byte) (key, error) {
	if len(b) != 1+4+32 {
		return key{}, fmt.Errorf("balance: malformed mirror key (%d bytes)", len(b))
	}
	var k key
	k.asset.Kind = AssetKind(b[0])
	k.asset.Id = binary.BigEndian.Uint32(b[1:5])
	copy(k.account[:], b[5:])
	return k, nil
}

// Export returns every balance cell as a mirror.Entry, for periodic
// snapshotting.
func (l *Ledger) Export() []mirror.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]mirror.Entry, 0, len(l.cells))
	for k, v := range l.cells {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			panic(fmt.Errorf("balance: encode mirror entry: %w", err))
		}
		entries = append(entries, mirror.Entry{Key: keyBytes(k), Value: buf.Bytes()})
	}
	return entries
}

// Restore replaces the ledger's contents with entries loaded from a
// mirror snapshot, as the trusted core does on restart.
func (l *Ledger) Restore(entries []mirror.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cells := make(map[key]Balances, len(entries))
	for _, e := range entries {
		k, err := keyFromBytes(e.Key)
		if err != nil {
			return err
		}
		var v Balances
		if err := gob.NewDecoder(bytes.NewReader(e.Value)).Decode(&v); err != nil {
			return fmt.Errorf("balance: decode mirror entry: %w", err)
		}
		cells[k] = v
	}
	l.cells = cells
	return nil
}
