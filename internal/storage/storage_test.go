package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/report"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir, 10)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	// Check if database file was created
	dbPath := filepath.Join(tempDir, "titanic-runs.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	// A regular file where the data directory should be
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(filepath.Join(file, "data"), 10)
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}

	// Test closing already closed store
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestStore_RecordAndRecentRuns(t *testing.T) {
	store, err := New(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := RunRecord{
			ID:         string(rune('a' + i)),
			Filename:   "test.csv",
			StartedAt:  base.Add(time.Duration(i) * time.Second),
			DurationMs: 12,
			Backend:    "heuristic",
			Summary:    report.Summarize([]int{1, 0}, nil),
		}
		if err := store.RecordRun(rec); err != nil {
			t.Fatalf("Failed to record run: %v", err)
		}
	}

	runs, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("Expected newest first, got %s..%s", runs[0].ID, runs[2].ID)
	}
	if runs[0].Summary.Total != 2 || runs[0].Summary.SurvivedPct != 50 {
		t.Errorf("Summary not preserved: %+v", runs[0].Summary)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("StartedAt not preserved: %v", runs[0].StartedAt)
	}

	limited, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "c" || limited[1].ID != "b" {
		t.Errorf("Unexpected limited runs: %+v", limited)
	}
}

func TestStore_PrunesToHistory(t *testing.T) {
	store, err := New(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		rec := RunRecord{ID: string(rune('a' + i)), StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.RecordRun(rec); err != nil {
			t.Fatalf("Failed to record run: %v", err)
		}
	}

	runs, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs after pruning, got %d", len(runs))
	}
	if runs[0].ID != "g" || runs[2].ID != "e" {
		t.Errorf("Expected the newest runs to survive, got %s..%s", runs[0].ID, runs[2].ID)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir, 10)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.RecordRun(RunRecord{ID: "run-1", StartedAt: time.Now()}); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}
	store.Close()

	store, err = New(dir, 10)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("Expected persisted run, got %+v", runs)
	}
}
