package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"TradePulse/internal/domain/models"
)

// ErrCorruptModel flags a snapshot file the current build cannot load:
// wrong schema version, wrong feature dimension, or unparseable content.
var ErrCorruptModel = errors.New("corrupt model snapshot")

// FileStore persists model snapshots as JSON. Writes go through a temp
// file and rename so a crash mid-write never truncates the live snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(snap models.ModelSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot at the store path. A missing file is reported
// via os.ErrNotExist so callers can treat it as a fresh start; malformed
// or incompatible content maps to ErrCorruptModel.
func (s *FileStore) Load() (models.ModelSnapshot, error) {
	var snap models.ModelSnapshot
	data, err := os.ReadFile(s.path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if err := validateSnapshot(snap); err != nil {
		return models.ModelSnapshot{}, err
	}
	return snap, nil
}
