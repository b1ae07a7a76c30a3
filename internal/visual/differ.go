// Package visual captures screenshots of two URLs and computes pixel-level
// similarity between them.
package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/fetcher"
	"github.com/sitesentry/sitesentry/internal/models"
)

// ErrCaptureFailure marks a screenshot navigation failure. It is distinct
// from image-comparison errors so callers can tell capture problems from a
// computed low similarity.
var ErrCaptureFailure = errors.New("capture failure")

// Differ captures and compares page screenshots.
type Differ struct {
	config  config.VisualDiffConfig
	fetcher fetcher.PageFetcher
	logger  zerolog.Logger
}

// NewDiffer creates a visual differ using the given page fetcher.
func NewDiffer(cfg config.VisualDiffConfig, pageFetcher fetcher.PageFetcher, logger zerolog.Logger) *Differ {
	return &Differ{
		config:  cfg,
		fetcher: pageFetcher,
		logger:  logger.With().Str("component", "VisualDiffer").Logger(),
	}
}

// Compare captures a full-page screenshot of each URL independently and
// computes pixel similarity. Artifacts are written under the configured
// output directory with timestamp-qualified names so concurrent
// comparisons do not collide.
func (d *Differ) Compare(ctx context.Context, referenceURL, currentURL string) (*models.VisualComparison, error) {
	referenceShot, err := d.capture(ctx, referenceURL)
	if err != nil {
		return nil, err
	}
	currentShot, err := d.capture(ctx, currentURL)
	if err != nil {
		return nil, err
	}

	referenceImg, err := decodePNG(referenceShot)
	if err != nil {
		return nil, common.WrapError(err, "failed to decode reference screenshot")
	}
	currentImg, err := decodePNG(currentShot)
	if err != nil {
		return nil, common.WrapError(err, "failed to decode current screenshot")
	}

	cmp, err := compareImages(referenceImg, currentImg, d.config.PixelTolerance)
	if err != nil {
		return nil, common.WrapError(err, "image comparison failed")
	}

	now := time.Now()
	paths, err := d.persistArtifacts(referenceShot, currentShot, cmp, now)
	if err != nil {
		return nil, err
	}

	result := &models.VisualComparison{
		SimilarityPercent: cmp.similarityPercent,
		PixelDiffCount:    cmp.pixelDiffCount,
		ChangePercent:     100.0 - cmp.similarityPercent,
		PerceptualDist:    cmp.perceptualDist,
		ScreenshotPaths:   paths,
		Timestamp:         now,
	}

	d.logger.Info().
		Float64("similarity_percent", result.SimilarityPercent).
		Int("pixel_diff_count", result.PixelDiffCount).
		Int("perceptual_distance", result.PerceptualDist).
		Msg("Visual comparison completed")

	return result, nil
}

// capture fetches one URL with screenshot enabled. Each capture uses its
// own page so concurrent captures cannot contaminate each other.
func (d *Differ) capture(ctx context.Context, url string) ([]byte, error) {
	result, err := d.fetcher.Fetch(ctx, url, fetcher.FetchOptions{
		Viewport:          fetcher.Viewport{Width: 1920, Height: 1080},
		SettleDelay:       2 * time.Second,
		CaptureScreenshot: true,
	})
	if err != nil {
		return nil, common.WrapErrorf(ErrCaptureFailure, "screenshot capture failed for %s: %v", url, err)
	}
	if len(result.Screenshot) == 0 {
		return nil, common.WrapErrorf(ErrCaptureFailure, "empty screenshot for %s", url)
	}
	return result.Screenshot, nil
}

func (d *Differ) persistArtifacts(referenceShot, currentShot []byte, cmp *comparison, ts time.Time) (models.ScreenshotPaths, error) {
	var paths models.ScreenshotPaths

	if err := os.MkdirAll(d.config.OutputDir, 0755); err != nil {
		return paths, common.WrapErrorf(err, "failed to create screenshot directory %s", d.config.OutputDir)
	}

	stamp := ts.Format("20060102_150405.000")
	paths.Reference = filepath.Join(d.config.OutputDir, fmt.Sprintf("reference_%s.png", stamp))
	paths.Current = filepath.Join(d.config.OutputDir, fmt.Sprintf("current_%s.png", stamp))

	if err := os.WriteFile(paths.Reference, referenceShot, 0644); err != nil {
		return paths, common.WrapError(err, "failed to write reference screenshot")
	}
	if err := os.WriteFile(paths.Current, currentShot, 0644); err != nil {
		return paths, common.WrapError(err, "failed to write current screenshot")
	}

	if d.config.WriteDiffImage && cmp.diffImage != nil {
		paths.Diff = filepath.Join(d.config.OutputDir, fmt.Sprintf("diff_%s.png", stamp))
		var buf bytes.Buffer
		if err := png.Encode(&buf, cmp.diffImage); err != nil {
			return paths, common.WrapError(err, "failed to encode diff image")
		}
		if err := os.WriteFile(paths.Diff, buf.Bytes(), 0644); err != nil {
			return paths, common.WrapError(err, "failed to write diff image")
		}
	}

	return paths, nil
}

func decodePNG(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
