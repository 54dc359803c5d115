// Package file implements the board store as a single JSON file on
// disk, the durable equivalent of the browser's localStorage slot.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/collabboard/collabboard/pkg/models"
	"github.com/collabboard/collabboard/pkg/store"
)

// Store persists the board snapshot as pretty-printed JSON at Path.
type Store struct {
	Path string
}

var _ store.Store = (*Store)(nil)

// New creates a file store at path, creating parent directories as
// needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating board directory: %w", err)
	}
	return &Store{Path: path}, nil
}

func (s *Store) Load() (*models.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading board file: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing board file: %w", err)
	}
	return &snap, nil
}

func (s *Store) Save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding board snapshot: %w", err)
	}

	// Write-then-rename so a crash mid-save cannot truncate the only
	// copy of the board.
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing board file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replacing board file: %w", err)
	}
	return nil
}
