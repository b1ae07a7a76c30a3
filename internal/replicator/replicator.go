// Package replicator clones a remote page into a self-contained static
// bundle: stylesheets, scripts, images, and fonts rewritten to local
// relative paths, with per-class capture limits and per-asset failure
// tolerance.
package replicator

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/fetcher"
	"github.com/sitesentry/sitesentry/internal/models"
)

// ErrCloneFailure marks an unrecoverable top-level clone error (navigation
// failure, unwritable output directory). Per-asset errors are absorbed and
// never surface as this.
var ErrCloneFailure = errors.New("clone failure")

// Engine produces replication bundles. One Clone invocation exclusively
// owns its output directory; there are no retries within an invocation.
type Engine struct {
	config  config.ClonerConfig
	fetcher fetcher.PageFetcher
	logger  zerolog.Logger
	factory *common.HTTPClientFactory
}

// NewEngine creates a replication engine using the given page fetcher for
// the entry document.
func NewEngine(cfg config.ClonerConfig, pageFetcher fetcher.PageFetcher, logger zerolog.Logger) *Engine {
	return &Engine{
		config:  cfg,
		fetcher: pageFetcher,
		logger:  logger.With().Str("component", "ReplicationEngine").Logger(),
		factory: common.NewHTTPClientFactory(logger),
	}
}

// Clone fetches the fully rendered document at the URL plus a capped set of
// referenced assets, rewrites captured references to local relative paths,
// and emits deployment descriptors so the bundle is deployable as-is.
func (e *Engine) Clone(ctx context.Context, rawURL string) (*models.ReplicationBundle, error) {
	state := models.CloneStateStarted
	bundle := &models.ReplicationBundle{}
	logState := func(next models.CloneState) {
		state = next
		e.logger.Debug().Str("url", rawURL).Str("state", string(state)).Msg("Clone state transition")
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "invalid clone URL %q: %v", rawURL, err))
	}

	outputDir := filepath.Join(e.config.OutputRoot, bundleDirName(pageURL, rawURL))
	bundle.OutputDirectory = outputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "output directory %s not writable: %v", outputDir, err))
	}

	logState(models.CloneStateFetching)
	page, err := e.fetcher.Fetch(ctx, rawURL, fetcher.FetchOptions{})
	if err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "navigation failed for %s: %v", rawURL, err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "failed to parse document: %v", err))
	}

	logState(models.CloneStateAssetCollection)
	refs := e.collectAssetRefs(doc, pageURL)
	captured := e.downloadAssets(ctx, refs, outputDir)

	fontCount := e.embedFonts(ctx, captured, pageURL, outputDir)

	logState(models.CloneStateRewriting)
	rewriteDocument(doc, pageURL, captured)

	logState(models.CloneStateFinalizing)
	html, err := doc.Html()
	if err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "failed to serialize document: %v", err))
	}
	html = stripOrigin(html, pageURL)

	entryPath := filepath.Join(outputDir, "index.html")
	if err := os.WriteFile(entryPath, []byte(html), 0644); err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "failed to write entry document: %v", err))
	}

	if err := writeDeploymentDescriptors(outputDir); err != nil {
		return e.fail(bundle, common.WrapErrorf(ErrCloneFailure, "failed to write deployment descriptors: %v", err))
	}

	bundle.EntryDocumentPath = entryPath
	bundle.AssetCounts = countAssets(captured)
	bundle.AssetCounts.Fonts = fontCount
	bundle.Success = true
	logState(models.CloneStateSucceeded)

	e.logger.Info().
		Str("url", rawURL).
		Str("output_dir", outputDir).
		Int("images", bundle.AssetCounts.Images).
		Int("stylesheets", bundle.AssetCounts.Stylesheets).
		Int("scripts", bundle.AssetCounts.Scripts).
		Int("fonts", bundle.AssetCounts.Fonts).
		Msg("Clone completed")

	return bundle, nil
}

func (e *Engine) fail(bundle *models.ReplicationBundle, err error) (*models.ReplicationBundle, error) {
	bundle.Success = false
	bundle.FailureReason = err.Error()
	e.logger.Error().Err(err).Str("state", string(models.CloneStateFailed)).Msg("Clone failed")
	return bundle, err
}

func countAssets(captured map[string]*assetRef) models.AssetCounts {
	var counts models.AssetCounts
	for _, ref := range captured {
		if !ref.saved {
			continue
		}
		switch ref.kind {
		case assetImage:
			counts.Images++
		case assetStylesheet:
			counts.Stylesheets++
		case assetScript:
			counts.Scripts++
		}
	}
	return counts
}

var unsafeDirChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// bundleDirName derives a deterministic, collision-safe directory name from
// the URL's host plus a short digest of the full URL.
func bundleDirName(pageURL *url.URL, rawURL string) string {
	host := unsafeDirChars.ReplaceAllString(pageURL.Hostname(), "_")
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s_%x", host, sum[:4])
}

// stripOrigin removes remaining absolute references to the origin so the
// bundle is relocatable.
func stripOrigin(html string, pageURL *url.URL) string {
	origin := pageURL.Scheme + "://" + pageURL.Host
	html = strings.ReplaceAll(html, origin+"/", "/")
	return strings.ReplaceAll(html, origin, "/")
}
