// Package detector computes whether a monitored page changed between the
// stored baseline and a fresh capture, and classifies the change as
// content, price, or structure.
package detector

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/snapshot"
)

// ErrBaselineMissing is returned when a check is attempted before the
// target's baseline has been captured.
var ErrBaselineMissing = errors.New("baseline missing")

// structurePrefixLen is how much of the raw HTML participates in the
// structural comparison.
const structurePrefixLen = 1000

// Detector runs one detection cycle against the snapshot store.
type Detector struct {
	store  snapshot.Store
	logger zerolog.Logger
	dmp    *diffmatchpatch.DiffMatchPatch
}

// NewDetector creates a detector backed by the given snapshot store.
func NewDetector(store snapshot.Store, logger zerolog.Logger) *Detector {
	return &Detector{
		store:  store,
		logger: logger.With().Str("component", "Detector").Logger(),
		dmp:    diffmatchpatch.New(),
	}
}

// Detect compares the fresh snapshot against the stored baseline, replaces
// the baseline, and returns the classified result. The result reflects the
// baseline that was current before replacement, so a second call with the
// same fresh content reports no change.
//
// Callers must serialize concurrent Detect calls for the same target id;
// calls for different ids are independent.
func (d *Detector) Detect(targetID string, fresh *models.Snapshot) (*models.ChangeResult, error) {
	baseline, err := d.store.Get(targetID)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			return nil, common.WrapErrorf(ErrBaselineMissing, "no baseline for target %s", targetID)
		}
		return nil, common.WrapErrorf(err, "failed to load baseline for target %s", targetID)
	}

	result := &models.ChangeResult{
		TargetID:     targetID,
		ChangeType:   models.ChangeTypeNone,
		PreviousHash: baseline.ContentHash,
		CurrentHash:  fresh.ContentHash,
		Timestamp:    time.Now(),
	}

	if fresh.ContentHash == baseline.ContentHash {
		// Common case: keep it cheap, no classification pass.
		if err := d.store.Put(targetID, fresh); err != nil {
			return nil, common.WrapErrorf(err, "failed to replace baseline for target %s", targetID)
		}
		return result, nil
	}

	result.Changed = true
	result.ChangeType = d.classify(baseline, fresh, result)

	if err := d.store.Put(targetID, fresh); err != nil {
		return nil, common.WrapErrorf(err, "failed to replace baseline for target %s", targetID)
	}

	d.logger.Info().
		Str("target_id", targetID).
		Str("change_type", string(result.ChangeType)).
		Int("differences", len(result.Differences)).
		Msg("Change detected")

	return result, nil
}

// classify determines the change type and appends every detected
// difference. Precedence for the type label: price, then structure, then
// content — structural change is the stronger signal when both it and a
// content edit are present.
func (d *Detector) classify(baseline, fresh *models.Snapshot, result *models.ChangeResult) models.ChangeType {
	priceChanged := fresh.PriceHash != baseline.PriceHash
	if priceChanged {
		result.Differences = append(result.Differences, "Prices have changed.")
	}

	if fresh.Title != baseline.Title {
		result.Differences = append(result.Differences,
			fmt.Sprintf("Title changed from %q to %q", baseline.Title, fresh.Title))
	}
	if len(fresh.Headings) != len(baseline.Headings) {
		result.Differences = append(result.Differences,
			fmt.Sprintf("Heading count changed from %d to %d", len(baseline.Headings), len(fresh.Headings)))
	}
	if note := d.textDelta(baseline.Paragraphs, fresh.Paragraphs); note != "" {
		result.Differences = append(result.Differences, note)
	}

	structureChanged := htmlPrefix(baseline.HTML) != htmlPrefix(fresh.HTML)
	if structureChanged {
		result.Differences = append(result.Differences, "HTML structure has changed.")
	}

	switch {
	case priceChanged:
		return models.ChangeTypePrice
	case structureChanged:
		return models.ChangeTypeStructure
	default:
		return models.ChangeTypeContent
	}
}

// textDelta summarizes paragraph-level edits as insertion/deletion counts.
func (d *Detector) textDelta(before, after []string) string {
	oldText := strings.Join(before, "\n")
	newText := strings.Join(after, "\n")
	if oldText == newText {
		return ""
	}

	diffs := d.dmp.DiffMain(oldText, newText, true)
	diffs = d.dmp.DiffCleanupSemantic(diffs)

	insertions, deletions := 0, 0
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			insertions++
		case diffmatchpatch.DiffDelete:
			deletions++
		}
	}
	if insertions == 0 && deletions == 0 {
		return ""
	}
	return fmt.Sprintf("Text content changed (%d insertions, %d deletions)", insertions, deletions)
}

func htmlPrefix(html string) string {
	if len(html) > structurePrefixLen {
		return html[:structurePrefixLen]
	}
	return html
}
