package models

import "time"

// Snapshot is an immutable capture of a monitored target at one instant.
// One current snapshot (the baseline) is retained per target; each
// successful check produces a new snapshot that replaces the prior one.
type Snapshot struct {
	ContentHash string    `json:"content_hash"`
	PriceHash   string    `json:"price_hash,omitempty"`
	Title       string    `json:"title"`
	Headings    []string  `json:"headings,omitempty"`
	Paragraphs  []string  `json:"paragraphs,omitempty"`
	Links       []string  `json:"links,omitempty"`
	HTML        string    `json:"html,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}
