package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStore_ReadBeforeSave(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists())
	_, err = store.Read()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultStore_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewResultStore(dir)
	require.NoError(t, err)

	first := []byte("Pclass,PredictedSurvived\n1,1\n2,0\n3,0\n")
	second := []byte("Pclass,PredictedSurvived\n3,0\n")

	require.NoError(t, store.Save(first))
	assert.True(t, store.Exists())
	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	require.NoError(t, store.Save(second))
	got, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "titanic_predictions.csv", entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "titanic_predictions.csv"), store.Path())
}

func TestResultStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")

	store, err := NewResultStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save([]byte("a\n")))

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestResultStore_ConcurrentSavesLastWriteWins(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)

	payloads := make(map[string]bool)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		data := fmt.Sprintf("run,%d\n", i)
		mu.Lock()
		payloads[data] = true
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save([]byte(data)))
		}()
	}
	wg.Wait()

	got, err := store.Read()
	require.NoError(t, err)
	assert.True(t, payloads[string(got)], "snapshot %q is not one complete payload", got)
}
