// Package file stores registry snapshots as a JSON document on disk
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// Store keeps the snapshot in a single file. Saves write a temporary file
// next to the target, sync it and rename it over the target.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a new Store for path
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "file-store").Str("path", path).Logger(),
	}
}

// Load reads the snapshot file. A missing file is not an error.
func (s *Store) Load(_ context.Context) (entities.Snapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entities.Snapshot{}, false, nil
	}
	if err != nil {
		return entities.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	snap, err := Decode(data)
	if err != nil {
		return entities.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return snap, true, nil
}

// Decode parses a snapshot document
func Decode(data []byte) (entities.Snapshot, error) {
	var snap entities.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return entities.Snapshot{}, err
	}
	if snap.Version == 0 && len(snap.Items) == 0 && snap.NextSeq == 0 {
		return entities.Snapshot{}, errors.New("document is not a snapshot")
	}
	return snap, nil
}

// Save writes the snapshot atomically
func (s *Store) Save(_ context.Context, snap entities.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	// the rename is durable once the directory entry is synced
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	s.logger.Debug().Int("bytes", len(data)).Msg("Snapshot saved")
	return nil
}
