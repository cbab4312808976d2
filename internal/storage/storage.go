// Package storage persists prediction output. ResultStore owns the single
// downloadable snapshot; Store keeps an audit log of completed runs in BoltDB.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/report"

	"go.etcd.io/bbolt"
)

const (
	runsBucket = "runs" // Bucket name for run records, keyed by start time
	dbFileName = "titanic-runs.db"
)

// RunRecord describes one successful prediction run.
type RunRecord struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMs int64          `json:"duration_ms"`
	Backend    string         `json:"backend"`
	Summary    report.Summary `json:"summary"`
}

// Store is the run log. It keeps at most history records, dropping the oldest.
type Store struct {
	db      *bbolt.DB
	history int
}

// New opens (creating if needed) the run log under dataPath.
func New(dataPath string, history int) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataPath, dbFileName)
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, history: history}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RecordRun appends a run and prunes the log to its history limit.
func (s *Store) RecordRun(rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if err := b.Put(runKey(rec.StartedAt), data); err != nil {
			return fmt.Errorf("put run record: %w", err)
		}
		return prune(b, s.history)
	})
}

// RecentRuns returns up to limit records, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(runs) < limit); k, v = c.Prev() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, rec)
		}
		return nil
	})

	return runs, err
}

// runKey sorts lexically in start-time order.
func runKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", t.UnixNano()))
}

func prune(b *bbolt.Bucket, keep int) error {
	if keep <= 0 {
		return nil
	}

	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	if len(keys) <= keep {
		return nil
	}

	for _, k := range keys[:len(keys)-keep] {
		if err := b.Delete(k); err != nil {
			return fmt.Errorf("prune run %s: %w", k, err)
		}
	}
	return nil
}
