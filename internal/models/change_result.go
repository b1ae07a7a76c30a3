package models

import "time"

// ChangeType classifies what kind of change a detection cycle found.
type ChangeType string

const (
	ChangeTypeNone      ChangeType = "none"
	ChangeTypeContent   ChangeType = "content"
	ChangeTypePrice     ChangeType = "price"
	ChangeTypeStructure ChangeType = "structure"
)

// ChangeResult is the output of one detection cycle. It is ephemeral:
// consumers (dispatcher, history archive, callers) decide retention.
type ChangeResult struct {
	TargetID     string     `json:"target_id"`
	URL          string     `json:"url"`
	Changed      bool       `json:"changed"`
	ChangeType   ChangeType `json:"change_type"`
	Differences  []string   `json:"differences,omitempty"`
	PreviousHash string     `json:"previous_hash"`
	CurrentHash  string     `json:"current_hash"`
	Timestamp    time.Time  `json:"timestamp"`
}
