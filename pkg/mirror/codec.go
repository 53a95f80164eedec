package mirror

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrCorruptSnapshot is returned when neither the primary nor the previous
// snapshot file could be decoded.
var ErrCorruptSnapshot = errors.New("mirror: no readable snapshot")

func encodeEntries(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, fmt.Errorf("mirror: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("mirror: decode snapshot: %w", err)
	}
	return entries, nil
}

func (m *Mirror) primaryPath(dir string) string  { return filepath.Join(dir, m.name+".bin") }
func (m *Mirror) previousPath(dir string) string { return m.primaryPath(dir) + ".1" }

// Snapshot atomically writes the mirror's current contents to
// <dir>/<name>.bin. The existing primary is first copied to <name>.bin.1
// (so a crash mid-write still leaves a complete previous snapshot on
// disk), then the new contents are written to the primary via
// write-temp-then-rename so a reader never observes a half-written
// primary file either.
func (m *Mirror) Snapshot(dir string) error {
	entries := m.Entries()
	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	primary := m.primaryPath(dir)
	previous := m.previousPath(dir)

	if _, err := os.Stat(primary); err == nil {
		if err := copyFile(primary, previous); err != nil {
			return fmt.Errorf("mirror: rotate previous snapshot: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("mirror: stat primary snapshot: %w", err)
	}

	return writeFileAtomic(primary, data)
}

// Restore loads entries from disk, preferring the primary file and
// falling back to the previous one if the primary is missing or corrupt.
// It does not mutate the mirror itself; the caller hands the returned
// entries to the trusted core's own Restore methods (pkg/balance,
// pkg/accounts, pkg/orderbook) to replay.
func (m *Mirror) Restore(dir string) ([]Entry, error) {
	if data, err := os.ReadFile(m.primaryPath(dir)); err == nil {
		if entries, derr := decodeEntries(data); derr == nil {
			return entries, nil
		} else {
			m.log.Warn("mirror: primary snapshot unreadable, falling back to previous generation",
				zap.String("store", m.name), zap.Error(derr))
		}
	}
	if data, err := os.ReadFile(m.previousPath(dir)); err == nil {
		if entries, derr := decodeEntries(data); derr == nil {
			return entries, nil
		}
	}
	m.log.Error("mirror: no readable snapshot generation", zap.String("store", m.name))
	return nil, ErrCorruptSnapshot
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
