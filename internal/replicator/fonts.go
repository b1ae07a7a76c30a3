package replicator

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sitesentry/sitesentry/internal/common"
)

// cssURLPattern matches url(...) references inside stylesheet text.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

var fontExtensions = map[string]struct{}{
	".woff":  {},
	".woff2": {},
	".ttf":   {},
	".otf":   {},
	".eot":   {},
}

// embedFonts scans captured stylesheets for font url() references,
// downloads them into assets/fonts, and rewrites the stylesheet text to
// the local relative path. Best effort: any failure leaves the original
// reference in place.
func (e *Engine) embedFonts(ctx context.Context, captured map[string]*assetRef, pageURL *url.URL, outputDir string) int {
	client := e.factory.CreateAssetClient(time.Duration(e.config.AssetTimeoutSecs)*time.Second, false)

	fontCount := 0
	for _, ref := range captured {
		if ref.kind != assetStylesheet || !ref.saved {
			continue
		}
		fontCount += e.embedFontsInStylesheet(ctx, client, ref, pageURL, outputDir, fontCount)
		if fontCount >= e.config.MaxFonts {
			break
		}
	}
	return fontCount
}

func (e *Engine) embedFontsInStylesheet(ctx context.Context, client *http.Client, sheet *assetRef, pageURL *url.URL, outputDir string, fontsSoFar int) int {
	sheetPath := filepath.Join(outputDir, filepath.FromSlash(sheet.localPath))
	cssData, err := os.ReadFile(sheetPath)
	if err != nil {
		e.logger.Warn().Err(err).Str("stylesheet", sheet.localPath).Msg("Failed to read stylesheet for font embedding")
		return 0
	}

	sheetURL, err := url.Parse(sheet.absoluteURL)
	if err != nil {
		return 0
	}

	css := string(cssData)
	embedded := 0
	for _, match := range cssURLPattern.FindAllStringSubmatch(css, -1) {
		if fontsSoFar+embedded >= e.config.MaxFonts {
			break
		}

		rawRef := match[1]
		ext := strings.ToLower(path.Ext(stripQuery(rawRef)))
		if _, ok := fontExtensions[ext]; !ok {
			continue
		}

		fontURL := resolveRef(sheetURL, rawRef)
		if fontURL == "" {
			continue
		}

		localName := nameWithIndex("font", fontsSoFar+embedded, ext)
		if err := e.downloadFont(ctx, client, fontURL, filepath.Join(outputDir, "assets", "fonts", localName)); err != nil {
			e.logger.Warn().Err(err).Str("font_url", fontURL).Msg("Font download failed, keeping original reference")
			continue
		}

		// Stylesheets live in assets/css, fonts in assets/fonts.
		css = strings.ReplaceAll(css, match[0], "url(../fonts/"+localName+")")
		embedded++
	}

	if embedded > 0 {
		if err := os.WriteFile(sheetPath, []byte(css), 0644); err != nil {
			e.logger.Warn().Err(err).Str("stylesheet", sheet.localPath).Msg("Failed to rewrite stylesheet with embedded fonts")
			return 0
		}
	}
	return embedded
}

func (e *Engine) downloadFont(ctx context.Context, client *http.Client, fontURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fontURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return common.NewHTTPErrorWithURL(resp.StatusCode, "font download failed", fontURL)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, resp.Body)
	return err
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}
