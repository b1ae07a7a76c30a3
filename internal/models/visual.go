package models

import "time"

// ScreenshotPaths holds the artifact locations of one visual comparison.
type ScreenshotPaths struct {
	Reference string `json:"reference"`
	Current   string `json:"current"`
	Diff      string `json:"diff,omitempty"`
}

// VisualComparison is the immutable result of comparing two page captures
// pixel by pixel.
type VisualComparison struct {
	SimilarityPercent float64         `json:"similarity_percent"`
	PixelDiffCount    int             `json:"pixel_diff_count"`
	ChangePercent     float64         `json:"change_percent"`
	PerceptualDist    int             `json:"perceptual_distance"`
	ScreenshotPaths   ScreenshotPaths `json:"screenshot_paths"`
	Timestamp         time.Time       `json:"timestamp"`
}
