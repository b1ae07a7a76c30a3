// Package datastore archives check results per target as parquet files.
// The detection core treats ChangeResults as ephemeral; this store is the
// retention consumer for reporting and audits.
package datastore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/models"
)

// CheckRecord is the parquet row schema for one detection cycle.
type CheckRecord struct {
	TargetID     string `parquet:"target_id"`
	URL          string `parquet:"url"`
	Changed      bool   `parquet:"changed"`
	ChangeType   string `parquet:"change_type"`
	Differences  string `parquet:"differences"`
	PreviousHash string `parquet:"previous_hash"`
	CurrentHash  string `parquet:"current_hash"`
	Timestamp    int64  `parquet:"timestamp"` // unix millis
}

// HistoryStore appends and reads per-target check history files.
type HistoryStore struct {
	baseDir string
	logger  zerolog.Logger
	mu      sync.Mutex
}

// NewHistoryStore creates the archive directory if needed.
func NewHistoryStore(baseDir string, logger zerolog.Logger) (*HistoryStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create history directory %s", baseDir)
	}
	return &HistoryStore{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "HistoryStore").Logger(),
	}, nil
}

// Append records one check result in the target's history file. Existing
// rows are preserved: the file is rewritten to a temp file and renamed.
func (hs *HistoryStore) Append(result *models.ChangeResult) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	path := hs.filePath(result.TargetID)
	records, err := hs.readAll(path)
	if err != nil {
		return err
	}

	records = append(records, CheckRecord{
		TargetID:     result.TargetID,
		URL:          result.URL,
		Changed:      result.Changed,
		ChangeType:   string(result.ChangeType),
		Differences:  strings.Join(result.Differences, "\n"),
		PreviousHash: result.PreviousHash,
		CurrentHash:  result.CurrentHash,
		Timestamp:    result.Timestamp.UnixMilli(),
	})

	tmpPath := path + ".tmp"
	if err := parquet.WriteFile(tmpPath, records); err != nil {
		return common.WrapErrorf(err, "failed to write history file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return common.WrapErrorf(err, "failed to replace history file %s", path)
	}
	return nil
}

// History returns all archived records for the target, oldest first. A
// target with no history yields an empty slice.
func (hs *HistoryStore) History(targetID string) ([]CheckRecord, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.readAll(hs.filePath(targetID))
}

func (hs *HistoryStore) readAll(path string) ([]CheckRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	records, err := parquet.ReadFile[CheckRecord](path)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read history file %s", path)
	}
	return records, nil
}

var unsafeFileChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

func (hs *HistoryStore) filePath(targetID string) string {
	return filepath.Join(hs.baseDir, unsafeFileChars.Replace(targetID)+".parquet")
}
