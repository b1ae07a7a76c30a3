package replicator

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

type assetKind int

const (
	assetStylesheet assetKind = iota
	assetScript
	assetImage
)

// assetRef is one downloadable asset reference discovered in the document.
type assetRef struct {
	absoluteURL string
	kind        assetKind
	// localPath is relative to the bundle root, e.g. assets/css/style_0.css.
	localPath string
	saved     bool
}

// collectAssetRefs finds stylesheet, script, and image references in the
// document and assigns each a local bundle path. Per-class hard caps bound
// the clone; assets beyond a cap are not collected and keep their original
// absolute URLs in the document.
func (e *Engine) collectAssetRefs(doc *goquery.Document, base *url.URL) map[string]*assetRef {
	refs := make(map[string]*assetRef)
	counts := map[assetKind]int{}
	caps := map[assetKind]int{
		assetStylesheet: e.config.MaxStylesheets,
		assetScript:     e.config.MaxScripts,
		assetImage:      e.config.MaxImages,
	}

	add := func(rawRef string, kind assetKind) {
		if counts[kind] >= caps[kind] {
			return
		}
		absURL := resolveRef(base, rawRef)
		if absURL == "" {
			return
		}
		if _, ok := refs[absURL]; ok {
			return
		}
		refs[absURL] = &assetRef{
			absoluteURL: absURL,
			kind:        kind,
			localPath:   localAssetPath(kind, counts[kind], absURL),
		}
		counts[kind]++
	}

	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("href", ""), assetStylesheet)
	})
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""), assetScript)
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""), assetImage)
	})

	return refs
}

// downloadAssets fetches every collected reference concurrently and writes
// the bodies under the bundle's assets directory. A single asset failure is
// absorbed: the asset stays unsaved and its reference is left pointing at
// the original URL.
func (e *Engine) downloadAssets(ctx context.Context, refs map[string]*assetRef, outputDir string) map[string]*assetRef {
	if len(refs) == 0 {
		return refs
	}

	var mu sync.Mutex

	collector := colly.NewCollector(
		colly.Async(true),
		colly.MaxDepth(1),
		colly.IgnoreRobotsTxt(),
		colly.UserAgent("Mozilla/5.0 (compatible; SiteSentry/1.0)"),
	)
	collector.SetRequestTimeout(time.Duration(e.config.AssetTimeoutSecs) * time.Second)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: e.config.Parallelism,
	}); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to set asset download limit rule")
	}

	collector.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
		mu.Lock()
		ref, ok := refs[r.URL.String()]
		mu.Unlock()
		if ok {
			r.Ctx.Put("local_path", ref.localPath)
			r.Ctx.Put("asset_url", ref.absoluteURL)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		localPath := r.Ctx.Get("local_path")
		assetURL := r.Ctx.Get("asset_url")
		if localPath == "" || assetURL == "" {
			return
		}

		target := filepath.Join(outputDir, filepath.FromSlash(localPath))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			e.logger.Warn().Err(err).Str("asset_url", assetURL).Msg("Failed to create asset directory, skipping asset")
			return
		}
		if err := os.WriteFile(target, r.Body, 0644); err != nil {
			e.logger.Warn().Err(err).Str("asset_url", assetURL).Msg("Failed to write asset, skipping")
			return
		}

		mu.Lock()
		if ref, ok := refs[assetURL]; ok {
			ref.saved = true
		}
		mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		// Absorbed: the document keeps the original URL for this asset.
		e.logger.Warn().Err(err).Str("asset_url", r.Request.URL.String()).Msg("Asset download failed, skipping")
	})

	for absURL := range refs {
		if err := collector.Visit(absURL); err != nil {
			e.logger.Debug().Err(err).Str("asset_url", absURL).Msg("Asset visit rejected")
		}
	}
	collector.Wait()

	return refs
}

// resolveRef turns a raw attribute value into an absolute http(s) URL, or
// "" when the reference is not downloadable (data:, javascript:, empty).
func resolveRef(base *url.URL, rawRef string) string {
	rawRef = strings.TrimSpace(rawRef)
	if rawRef == "" {
		return ""
	}
	if strings.HasPrefix(rawRef, "data:") || strings.HasPrefix(rawRef, "javascript:") || strings.HasPrefix(rawRef, "#") {
		return ""
	}

	refURL, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(refURL)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// localAssetPath maps an asset to its bundle-relative location under the
// fixed assets/{css,js,images} convention.
func localAssetPath(kind assetKind, index int, absURL string) string {
	switch kind {
	case assetStylesheet:
		return path.Join("assets", "css", nameWithIndex("style", index, ".css"))
	case assetScript:
		return path.Join("assets", "js", nameWithIndex("script", index, ".js"))
	default:
		ext := path.Ext(urlPath(absURL))
		if ext == "" || len(ext) > 5 {
			ext = ".png"
		}
		return path.Join("assets", "images", nameWithIndex("img", index, ext))
	}
}

func nameWithIndex(prefix string, index int, ext string) string {
	return prefix + "_" + strconv.Itoa(index) + ext
}

func urlPath(absURL string) string {
	u, err := url.Parse(absURL)
	if err != nil {
		return ""
	}
	return u.Path
}
