package datastore

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/models"
)

func changeResult(targetID string, changed bool) *models.ChangeResult {
	return &models.ChangeResult{
		TargetID:     targetID,
		URL:          "https://example.com/product",
		Changed:      changed,
		ChangeType:   models.ChangeTypeContent,
		Differences:  []string{"Text content changed (1 insertions, 1 deletions)"},
		PreviousHash: "aaa",
		CurrentHash:  "bbb",
		Timestamp:    time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC),
	}
}

func TestHistoryStore_AppendAndRead(t *testing.T) {
	hs, err := NewHistoryStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, hs.Append(changeResult("t1", true)))
	require.NoError(t, hs.Append(changeResult("t1", false)))

	records, err := hs.History("t1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "t1", records[0].TargetID)
	assert.Equal(t, "https://example.com/product", records[0].URL)
	assert.True(t, records[0].Changed)
	assert.Equal(t, "content", records[0].ChangeType)
	assert.Equal(t, "Text content changed (1 insertions, 1 deletions)", records[0].Differences)
	assert.Equal(t, time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC).UnixMilli(), records[0].Timestamp)
	assert.False(t, records[1].Changed)
}

func TestHistoryStore_EmptyHistory(t *testing.T) {
	hs, err := NewHistoryStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	records, err := hs.History("never-seen")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryStore_TargetsAreIsolated(t *testing.T) {
	hs, err := NewHistoryStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, hs.Append(changeResult("t1", true)))
	require.NoError(t, hs.Append(changeResult("t2", true)))

	records, err := hs.History("t1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "t1", records[0].TargetID)
}

func TestHistoryStore_SanitizesTargetID(t *testing.T) {
	hs, err := NewHistoryStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, hs.Append(changeResult("a/b:c", true)))

	records, err := hs.History("a/b:c")
	require.NoError(t, err)
	require.Len(t, records, 1)
}
