package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/models"
)

// SQLiteStore is a durable Store backing. Snapshots survive process
// restarts; the payload is stored as a JSON blob keyed by target id.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the snapshot database at the given path
// and ensures the schema exists.
func NewSQLiteStore(dataSourceName string, logger zerolog.Logger) (*SQLiteStore, error) {
	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create snapshot database directory %s", dbDir)
	}

	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, common.WrapErrorf(err, "sql.Open failed for %s", dataSourceName)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "SQLiteStore").Logger(),
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "failed to initialize snapshot schema")
	}

	store.logger.Info().Str("db_path", dataSourceName).Msg("Snapshot database initialized")
	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		target_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		payload BLOB NOT NULL,
		captured_at DATETIME NOT NULL
	);
	`
	_, err := ss.db.Exec(query)
	return err
}

// Put replaces the current baseline for the target unconditionally.
func (ss *SQLiteStore) Put(targetID string, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return common.WrapError(err, "failed to marshal snapshot payload")
	}

	_, err = ss.db.Exec(`
		INSERT INTO snapshots (target_id, content_hash, payload, captured_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(target_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			payload = excluded.payload,
			captured_at = excluded.captured_at
	`, targetID, snap.ContentHash, payload, snap.CapturedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return common.WrapErrorf(err, "failed to store snapshot for target %s", targetID)
	}
	return nil
}

// Get returns the current baseline, or ErrSnapshotNotFound.
func (ss *SQLiteStore) Get(targetID string) (*models.Snapshot, error) {
	var payload []byte
	err := ss.db.QueryRow(`SELECT payload FROM snapshots WHERE target_id = ?`, targetID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to query snapshot for target %s", targetID)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, common.WrapError(err, "failed to unmarshal snapshot payload")
	}
	return &snap, nil
}

// Remove deletes the baseline for the target.
func (ss *SQLiteStore) Remove(targetID string) error {
	_, err := ss.db.Exec(`DELETE FROM snapshots WHERE target_id = ?`, targetID)
	if err != nil {
		return common.WrapErrorf(err, "failed to delete snapshot for target %s", targetID)
	}
	return nil
}

// Close closes the underlying database connection.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
