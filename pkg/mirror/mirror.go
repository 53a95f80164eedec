// Package mirror implements the persistence mirror: an out-of-trust
// copy of the balance, nonce, and orderbook maps that survives a process
// restart without being part of the trusted core itself. A mirror is fed
// one (key, value) change at a time or replaced wholesale by Load,
// periodically snapshotted to disk
// with a rotating previous-copy for crash safety, and replayed back into
// the trusted core on restart.
package mirror

import (
	"sync"

	"go.uber.org/zap"
)

// Entry is one (key, value) pair as it crosses the channel from a trusted
// store into its mirror, and as it is persisted to / loaded from disk.
// A nil Value means the key was deleted from the source store.
type Entry struct {
	Key   []byte
	Value []byte
}

// Mirror holds an out-of-trust copy of one trusted store's map. It is
// not authoritative: the trusted core remains the source of truth during
// runtime, and the mirror only exists to survive a restart.
type Mirror struct {
	name string
	log  *zap.Logger

	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty mirror for the named store ("balance", "nonce", or
// "orderbook"); name also selects the on-disk file name (<name>.bin).
func New(name string, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{name: name, log: log, data: make(map[string][]byte)}
}

// Ingest applies one change to the mirror's map: a nil value deletes key,
// anything else overwrites it.
func (m *Mirror) Ingest(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Value == nil {
		delete(m.data, string(e.Key))
		return
	}
	m.data[string(e.Key)] = e.Value
}

// Run drains ch into the mirror, one Ingest per entry, until ch is closed
// or stop fires. cmd/workerd does not call it: it refreshes each mirror
// with Load from a full store export on every snapshot tick.
func (m *Mirror) Run(ch <-chan Entry, stop <-chan struct{}) {
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			m.Ingest(e)
		case <-stop:
			return
		}
	}
}

// Entries returns a stable-ordered snapshot of the mirror's current
// contents, suitable for encoding to disk or handing to a store's Restore
// method.
func (m *Mirror) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.data))
	for k, v := range m.data {
		out = append(out, Entry{Key: []byte(k), Value: v})
	}
	sortEntries(out)
	return out
}

// Load replaces the mirror's contents with entries, as read back from
// disk during restart.
func (m *Mirror) Load(entries []Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte, len(entries))
	for _, e := range entries {
		m.data[string(e.Key)] = e.Value
	}
}

func sortEntries(entries []Entry) {
	// insertion sort: snapshot sizes are small (one process's working
	// set) and a stable on-disk order makes snapshots diffable across
	// cycles.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && lessKey(entries[j].Key, entries[j-1].Key); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func lessKey(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
