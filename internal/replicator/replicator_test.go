package replicator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/fetcher"
)

// staticFetcher serves a canned document instead of driving a browser.
type staticFetcher struct {
	html string
	err  error
}

func (sf *staticFetcher) Fetch(_ context.Context, rawURL string, _ fetcher.FetchOptions) (*fetcher.PageResult, error) {
	if sf.err != nil {
		return nil, sf.err
	}
	return &fetcher.PageResult{
		HTML: sf.html,
		Metadata: fetcher.PageMetadata{
			FinalURL:  rawURL,
			FetchedAt: time.Now(),
		},
	}, nil
}

func newTestEngine(t *testing.T, cfg config.ClonerConfig, html string) *Engine {
	t.Helper()
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = t.TempDir()
	}
	return NewEngine(cfg, &staticFetcher{html: html}, zerolog.Nop())
}

func mustParseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCollectAssetRefs_ImageCapEnforced(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, `<img src="/images/photo_%d.jpg">`, i)
	}
	b.WriteString("</body></html>")

	engine := newTestEngine(t, config.NewDefaultClonerConfig(), "")
	refs := engine.collectAssetRefs(mustParseDoc(t, b.String()), mustParseURL(t, "https://example.com/"))

	images := 0
	for _, ref := range refs {
		if ref.kind == assetImage {
			images++
		}
	}
	assert.Equal(t, 50, images)
}

func TestCollectAssetRefs_DeduplicatesByAbsoluteURL(t *testing.T) {
	html := `<html><head>
		<link rel="stylesheet" href="/main.css">
		<link rel="stylesheet" href="https://example.com/main.css">
	</head><body>
		<img src="logo.png"><img src="./logo.png">
	</body></html>`

	engine := newTestEngine(t, config.NewDefaultClonerConfig(), "")
	refs := engine.collectAssetRefs(mustParseDoc(t, html), mustParseURL(t, "https://example.com/"))

	assert.Len(t, refs, 2)
}

func TestCollectAssetRefs_SkipsNonDownloadable(t *testing.T) {
	html := `<html><body>
		<img src="data:image/png;base64,AAAA">
		<script src="javascript:void(0)"></script>
		<img src="">
	</body></html>`

	engine := newTestEngine(t, config.NewDefaultClonerConfig(), "")
	refs := engine.collectAssetRefs(mustParseDoc(t, html), mustParseURL(t, "https://example.com/"))

	assert.Empty(t, refs)
}

func TestLocalAssetPath_Layout(t *testing.T) {
	assert.Equal(t, "assets/css/style_0.css", localAssetPath(assetStylesheet, 0, "https://example.com/a.css"))
	assert.Equal(t, "assets/js/script_3.js", localAssetPath(assetScript, 3, "https://example.com/a.js"))
	assert.Equal(t, "assets/images/img_1.jpg", localAssetPath(assetImage, 1, "https://example.com/photo.jpg"))
	assert.Equal(t, "assets/images/img_0.png", localAssetPath(assetImage, 0, "https://example.com/photo"), "missing extension defaults to .png")
}

func TestRewriteDocument_OnlySavedRefsRewritten(t *testing.T) {
	html := `<html><body>
		<img src="/saved.png" srcset="/saved-2x.png 2x">
		<img src="/unsaved.png">
	</body></html>`
	doc := mustParseDoc(t, html)
	base := mustParseURL(t, "https://example.com/")

	captured := map[string]*assetRef{
		"https://example.com/saved.png": {
			absoluteURL: "https://example.com/saved.png",
			kind:        assetImage,
			localPath:   "assets/images/img_0.png",
			saved:       true,
		},
		"https://example.com/unsaved.png": {
			absoluteURL: "https://example.com/unsaved.png",
			kind:        assetImage,
			localPath:   "assets/images/img_1.png",
		},
	}

	rewriteDocument(doc, base, captured)

	imgs := doc.Find("img")
	first := imgs.First()
	assert.Equal(t, "assets/images/img_0.png", first.AttrOr("src", ""))
	_, hasSrcset := first.Attr("srcset")
	assert.False(t, hasSrcset, "srcset must be dropped when src is rewritten")

	assert.Equal(t, "/unsaved.png", imgs.Last().AttrOr("src", ""), "uncaptured asset keeps its original reference")
}

func TestBundleDirName_DeterministicAndSanitized(t *testing.T) {
	u := mustParseURL(t, "https://shop.example.com:8443/products?id=1")

	a := bundleDirName(u, u.String())
	b := bundleDirName(u, u.String())
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "shop.example.com_"))

	other := bundleDirName(u, "https://shop.example.com:8443/products?id=2")
	assert.NotEqual(t, a, other, "different URLs on one host get distinct directories")
}

func TestStripOrigin(t *testing.T) {
	u := mustParseURL(t, "https://example.com/page")
	html := `<a href="https://example.com/about">About</a>`

	assert.Equal(t, `<a href="/about">About</a>`, stripOrigin(html, u))
}

func TestWriteDeploymentDescriptors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeDeploymentDescriptors(dir))

	redirects, err := os.ReadFile(filepath.Join(dir, "_redirects"))
	require.NoError(t, err)
	assert.Equal(t, "/*    /index.html   200\n", string(redirects))

	vercel, err := os.ReadFile(filepath.Join(dir, "vercel.json"))
	require.NoError(t, err)
	assert.Contains(t, string(vercel), `"destination": "/index.html"`)
}

func TestClone_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body { color: red; }"))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/missing.js", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	html := fmt.Sprintf(`<html><head>
		<link rel="stylesheet" href="%s/style.css">
		<script src="%s/missing.js"></script>
	</head><body>
		<img src="%s/logo.png">
	</body></html>`, server.URL, server.URL, server.URL)

	cfg := config.NewDefaultClonerConfig()
	cfg.OutputRoot = t.TempDir()
	engine := newTestEngine(t, cfg, html)

	bundle, err := engine.Clone(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.True(t, bundle.Success)
	assert.Equal(t, 1, bundle.AssetCounts.Stylesheets)
	assert.Equal(t, 1, bundle.AssetCounts.Images)
	assert.Equal(t, 0, bundle.AssetCounts.Scripts, "failed asset download is absorbed, not counted")

	entry, err := os.ReadFile(bundle.EntryDocumentPath)
	require.NoError(t, err)
	assert.Contains(t, string(entry), `href="assets/css/style_0.css"`)
	assert.Contains(t, string(entry), `src="assets/images/img_0.png"`)
	assert.NotContains(t, string(entry), server.URL, "origin references must be stripped")

	css, err := os.ReadFile(filepath.Join(bundle.OutputDirectory, "assets", "css", "style_0.css"))
	require.NoError(t, err)
	assert.Equal(t, "body { color: red; }", string(css))

	assert.FileExists(t, filepath.Join(bundle.OutputDirectory, "_redirects"))
	assert.FileExists(t, filepath.Join(bundle.OutputDirectory, "vercel.json"))
}

func TestClone_NavigationFailure(t *testing.T) {
	cfg := config.NewDefaultClonerConfig()
	cfg.OutputRoot = t.TempDir()
	engine := NewEngine(cfg, &staticFetcher{err: fetcher.ErrFetchFailure}, zerolog.Nop())

	bundle, err := engine.Clone(context.Background(), "https://unreachable.example.com/")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCloneFailure)
	assert.False(t, bundle.Success)
	assert.NotEmpty(t, bundle.FailureReason)
}

func TestClone_InvalidURL(t *testing.T) {
	engine := newTestEngine(t, config.NewDefaultClonerConfig(), "<html></html>")

	bundle, err := engine.Clone(context.Background(), "not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCloneFailure)
	assert.False(t, bundle.Success)
}
