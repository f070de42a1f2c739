package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "snapshot.json")
	store := NewFileStore(path)

	c := NewClassifier(50)
	feats, labels := trainingSet(80)
	if err := c.Train(feats, labels); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if err := store.Save(c.Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored := NewClassifier(50)
	if err := restored.RestoreSnapshot(loaded); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}
	if a, b := c.Predict(feats[0]), restored.Predict(feats[0]); a != b {
		t.Fatalf("Predict diverged after reload: %v vs %v", a, b)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := store.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load missing file: err = %v, want os.ErrNotExist", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := NewFileStore(path).Load(); !errors.Is(err, ErrCorruptModel) {
		t.Fatalf("Load corrupt file: err = %v, want ErrCorruptModel", err)
	}
}

func TestFileStoreWrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewFileStore(path)

	data := `{"version": 10, "weights": [0,0,0,0,0,0,0,0]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrCorruptModel) {
		t.Fatalf("Load wrong version: err = %v, want ErrCorruptModel", err)
	}
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	store := NewFileStore(path)

	if err := store.Save(NewClassifier(50).Snapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	c := NewClassifier(50)
	feats, labels := trainingSet(60)
	if err := c.Train(feats, labels); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if err := store.Save(c.Snapshot()); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries in dir", len(entries))
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Trained {
		t.Fatal("reload returned the stale first snapshot")
	}
}
