package models

// CloneState tracks the progress of one replication invocation.
type CloneState string

const (
	CloneStateStarted         CloneState = "started"
	CloneStateFetching        CloneState = "fetching"
	CloneStateAssetCollection CloneState = "asset_collection"
	CloneStateRewriting       CloneState = "rewriting"
	CloneStateFinalizing      CloneState = "finalizing"
	CloneStateSucceeded       CloneState = "succeeded"
	CloneStateFailed          CloneState = "failed"
)

// AssetCounts records how many assets of each class were captured into a bundle.
type AssetCounts struct {
	Images      int `json:"images"`
	Stylesheets int `json:"stylesheets"`
	Scripts     int `json:"scripts"`
	Fonts       int `json:"fonts"`
}

// ReplicationBundle describes the self-contained offline copy produced by
// one clone invocation. The output directory tree is exclusively owned by
// that invocation.
type ReplicationBundle struct {
	OutputDirectory   string      `json:"output_directory"`
	EntryDocumentPath string      `json:"entry_document_path"`
	AssetCounts       AssetCounts `json:"asset_counts"`
	Success           bool        `json:"success"`
	FailureReason     string      `json:"failure_reason,omitempty"`
}
