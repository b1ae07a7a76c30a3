package snapshot

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/models"
)

func testSnapshot(hash string) *models.Snapshot {
	return &models.Snapshot{
		ContentHash: hash,
		Title:       "Example",
		Headings:    []string{"Welcome"},
		Paragraphs:  []string{"hello world"},
		HTML:        "<html><body><p>hello world</p></body></html>",
		CapturedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestMemoryStore_PutGetRemove(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("t1")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))

	require.NoError(t, store.Put("t1", testSnapshot("hash-a")))
	snap, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", snap.ContentHash)

	require.NoError(t, store.Put("t1", testSnapshot("hash-b")))
	snap, err = store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "hash-b", snap.ContentHash, "Put must replace unconditionally")

	require.NoError(t, store.Remove("t1"))
	_, err = store.Get("t1")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))

	require.NoError(t, store.Remove("t1"), "removing an absent target is not an error")
	require.NoError(t, store.Close())
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	original := testSnapshot("hash-a")
	require.NoError(t, store.Put("t1", original))

	snap, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, original.ContentHash, snap.ContentHash)
	assert.Equal(t, original.Title, snap.Title)
	assert.Equal(t, original.Paragraphs, snap.Paragraphs)
	assert.Equal(t, original.HTML, snap.HTML)

	// Upsert path.
	require.NoError(t, store.Put("t1", testSnapshot("hash-b")))
	snap, err = store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "hash-b", snap.ContentHash)

	require.NoError(t, store.Remove("t1"))
	_, err = store.Get("t1")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Put("t1", testSnapshot("hash-a")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", snap.ContentHash)
}

func TestKeyMutexManager_SameKeySameMutex(t *testing.T) {
	km := NewKeyMutexManager()

	m1 := km.Get("t1")
	m2 := km.Get("t1")
	m3 := km.Get("t2")

	assert.Same(t, m1, m2)
	assert.NotSame(t, m1, m3)
	assert.Equal(t, 2, km.Count())
}

func TestKeyMutexManager_ConcurrentGet(t *testing.T) {
	km := NewKeyMutexManager()

	var wg sync.WaitGroup
	mutexes := make([]*sync.Mutex, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mutexes[i] = km.Get("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(mutexes); i++ {
		assert.Same(t, mutexes[0], mutexes[i])
	}
	assert.Equal(t, 1, km.Count())
}

func TestKeyMutexManager_Cleanup(t *testing.T) {
	km := NewKeyMutexManager()
	km.Get("t1")
	km.Get("t2")
	km.Get("t3")

	removed := km.Cleanup([]string{"t2"})
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, km.Count())
}
