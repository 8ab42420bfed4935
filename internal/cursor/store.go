// Package cursor implements the durable per-source offset-token store.
// Writes use the rename-over-temp-file trick so that at any crash point
// either the old or the new cursor file exists intact.
package cursor

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the last-persisted offset token for one source at Path.
// The format of the stored bytes is chosen by the caller (each source type
// encodes its own token); Store only guarantees atomic, fsync-durable
// replacement.
type Store struct {
	Path string
}

// Open returns a Store rooted at path. The parent directory is created if
// necessary so the first Save never fails on ENOENT.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cursor: create state dir: %w", err)
	}
	return &Store{Path: path}, nil
}

// Load reads the last-persisted bytes. A missing file is not an error: it
// returns (nil, false, nil), meaning "no prior cursor".
func (s *Store) Load() ([]byte, bool, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cursor: read %s: %w", s.Path, err)
	}
	return b, true, nil
}

// Save durably replaces the cursor file's contents with data: write to a
// sibling temp file, fsync it, then rename over the original. rename(2) is
// atomic on the same filesystem, so a crash mid-write leaves the old file
// (if any) intact; a crash after rename leaves the new one intact.
func (s *Store) Save(data []byte) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cursor: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed away

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cursor: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cursor: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cursor: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("cursor: rename into place: %w", err)
	}
	return nil
}
