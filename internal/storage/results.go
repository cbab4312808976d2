package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
)

// ErrNotFound is returned by ResultStore.Read when no run has completed yet.
var ErrNotFound = errors.New("no predictions available")

// ResultStore holds the most recent annotated table at one fixed path. Every
// Save replaces the previous snapshot; concurrent saves race and the last
// rename wins. Readers never see a partially written file.
type ResultStore struct {
	path string
}

// NewResultStore creates dir if needed and returns a store for
// <dir>/titanic_predictions.csv.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &ResultStore{path: filepath.Join(dir, common.PredictionsFileName)}, nil
}

// Path is the snapshot location.
func (s *ResultStore) Path() string {
	return s.path
}

// Save overwrites the snapshot with data.
func (s *ResultStore) Save(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".predictions-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot is available for download.
func (s *ResultStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the snapshot, or ErrNotFound.
func (s *ResultStore) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}
