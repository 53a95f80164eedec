package mirror

import (
	"bytes"
	"os"
	"sort"
	"testing"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := New("widgets", nil)
	m.Ingest(Entry{Key: []byte("a"), Value: []byte("1")})
	m.Ingest(Entry{Key: []byte("b"), Value: []byte("2")})
	m.Ingest(Entry{Key: []byte("c"), Value: []byte("3")})

	if err := m.Snapshot(dir); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	entries, err := m.Restore(dir)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	reloaded := New("widgets", nil)
	reloaded.Load(entries)

	if !entriesEqual(m.Entries(), reloaded.Entries()) {
		t.Fatalf("reloaded mirror does not match snapshotted mirror:\nwant %+v\ngot  %+v", m.Entries(), reloaded.Entries())
	}
}

// After any number of snapshot cycles, reloading from disk reproduces
// the snapshotted state.
func TestSnapshotCyclesPreserveData(t *testing.T) {
	dir := t.TempDir()
	m := New("widgets", nil)

	for cycle := 0; cycle < 5; cycle++ {
		m.Ingest(Entry{Key: []byte{byte(cycle)}, Value: []byte{byte(cycle * 2)}})
		if err := m.Snapshot(dir); err != nil {
			t.Fatalf("Snapshot cycle %d: %v", cycle, err)
		}

		entries, err := m.Restore(dir)
		if err != nil {
			t.Fatalf("Restore cycle %d: %v", cycle, err)
		}
		reloaded := New("widgets", nil)
		reloaded.Load(entries)
		if !entriesEqual(m.Entries(), reloaded.Entries()) {
			t.Fatalf("cycle %d: reloaded mirror diverged from live mirror", cycle)
		}
	}
}

func TestRestoreFallsBackToPreviousOnCorruptPrimary(t *testing.T) {
	dir := t.TempDir()
	m := New("widgets", nil)

	m.Ingest(Entry{Key: []byte("a"), Value: []byte("first")})
	if err := m.Snapshot(dir); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	firstGen := m.Entries()

	m.Ingest(Entry{Key: []byte("a"), Value: []byte("second")})
	if err := m.Snapshot(dir); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}

	// Simulate a crash mid-write of the primary file: it now holds garbage,
	// but the previous generation's rotated copy (name.bin.1) is intact.
	if err := os.WriteFile(m.primaryPath(dir), []byte("not a valid gob stream"), 0o644); err != nil {
		t.Fatalf("corrupt primary: %v", err)
	}

	entries, err := m.Restore(dir)
	if err != nil {
		t.Fatalf("Restore with corrupt primary: %v", err)
	}
	reloaded := New("widgets", nil)
	reloaded.Load(entries)

	if !entriesEqual(firstGen, reloaded.Entries()) {
		t.Fatalf("Restore did not fall back to the previous snapshot generation")
	}
}

func TestRestoreWithNoFilesIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	m := New("widgets", nil)
	if _, err := m.Restore(dir); err != ErrCorruptSnapshot {
		t.Fatalf("Restore on empty dir = %v, want ErrCorruptSnapshot", err)
	}
}

func entriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Slice(a, func(i, j int) bool { return lessKey(a[i].Key, a[j].Key) })
	sort.Slice(b, func(i, j int) bool { return lessKey(b[i].Key, b[j].Key) })
	for i := range a {
		if !bytes.Equal(a[i].Key, b[i].Key) || !bytes.Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}
