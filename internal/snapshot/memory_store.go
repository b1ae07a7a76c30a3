package snapshot

import (
	"sync"

	"github.com/sitesentry/sitesentry/internal/models"
)

// MemoryStore is the default in-memory Store backing. State does not
// survive process restarts.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*models.Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*models.Snapshot),
	}
}

// Put replaces the current baseline for the target unconditionally.
func (ms *MemoryStore) Put(targetID string, snap *models.Snapshot) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.snapshots[targetID] = snap
	return nil
}

// Get returns the current baseline, or ErrSnapshotNotFound.
func (ms *MemoryStore) Get(targetID string) (*models.Snapshot, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	snap, ok := ms.snapshots[targetID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// Remove deletes the baseline for the target. Removing an absent target is
// not an error.
func (ms *MemoryStore) Remove(targetID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.snapshots, targetID)
	return nil
}

// Close is a no-op for the in-memory store.
func (ms *MemoryStore) Close() error {
	return nil
}
