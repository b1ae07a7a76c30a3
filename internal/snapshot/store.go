// Package snapshot holds the last-known capture of each monitored target.
// The Store interface is a pluggable key-to-snapshot mapping so a durable
// backing can replace the in-memory default without touching detection
// logic.
package snapshot

import (
	"errors"

	"github.com/sitesentry/sitesentry/internal/models"
)

// ErrSnapshotNotFound is returned by Get when no baseline exists for a
// target. A target must be registered (baseline captured) before it can be
// checked.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store maps target IDs to their current baseline snapshot. Put replaces
// the baseline unconditionally; no history is retained at this layer.
// Implementations must be safe for concurrent use.
type Store interface {
	Put(targetID string, snap *models.Snapshot) error
	Get(targetID string) (*models.Snapshot, error)
	Remove(targetID string) error
	Close() error
}
