package snapshot

import "sync"

// KeyMutexManager hands out per-target-id mutexes so that a check's
// baseline read and replace are atomic with respect to other checks on the
// same target. Checks on different ids do not contend.
type KeyMutexManager struct {
	mu      sync.RWMutex
	mutexes map[string]*sync.Mutex
}

// NewKeyMutexManager creates an empty mutex manager.
func NewKeyMutexManager() *KeyMutexManager {
	return &KeyMutexManager{
		mutexes: make(map[string]*sync.Mutex),
	}
}

// Get returns the mutex for the key using double-checked locking.
func (km *KeyMutexManager) Get(key string) *sync.Mutex {
	km.mu.RLock()
	m := km.mutexes[key]
	km.mu.RUnlock()
	if m != nil {
		return m
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	// Another goroutine might have created it between the locks.
	if m, ok := km.mutexes[key]; ok {
		return m
	}
	m = &sync.Mutex{}
	km.mutexes[key] = m
	return m
}

// Cleanup removes mutexes whose keys are no longer active.
func (km *KeyMutexManager) Cleanup(activeKeys []string) int {
	activeSet := make(map[string]struct{}, len(activeKeys))
	for _, key := range activeKeys {
		activeSet[key] = struct{}{}
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	removed := 0
	for key := range km.mutexes {
		if _, ok := activeSet[key]; !ok {
			delete(km.mutexes, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of tracked mutexes.
func (km *KeyMutexManager) Count() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.mutexes)
}
