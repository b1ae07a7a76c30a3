// Package fetcher provides the page-fetcher capability: rendered HTML,
// page metadata, and an optional full-page screenshot for a URL.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// ErrFetchFailure marks an upstream page as unreachable or timed out.
// Callers must be able to distinguish this from "no change".
var ErrFetchFailure = errors.New("fetch failure")

// Viewport is the render size for a fetch.
type Viewport struct {
	Width  int
	Height int
}

// FetchOptions control a single fetch.
type FetchOptions struct {
	// Timeout bounds navigation plus rendering. Zero means the
	// configured default.
	Timeout time.Duration
	// SettleDelay is waited after load before content is read, to let
	// async rendering finish.
	SettleDelay time.Duration
	// Viewport overrides the configured window size when non-zero.
	Viewport Viewport
	// CaptureScreenshot requests a full-page PNG alongside the HTML.
	CaptureScreenshot bool
}

// PageMetadata carries auxiliary information about a fetched page.
type PageMetadata struct {
	Title     string
	FinalURL  string
	FetchedAt time.Time
}

// PageResult is the outcome of a successful fetch.
type PageResult struct {
	HTML       string
	Screenshot []byte
	Metadata   PageMetadata
}

// PageFetcher fetches fully rendered pages. Implementations must honor the
// context and the per-fetch timeout; on timeout the fetch fails with
// ErrFetchFailure rather than hanging.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*PageResult, error)
}
