package replicator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/config"
)

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "font.woff2", stripQuery("font.woff2?v=3"))
	assert.Equal(t, "font.woff2", stripQuery("font.woff2#iefix"))
	assert.Equal(t, "font.woff2", stripQuery("font.woff2"))
}

func TestCSSURLPattern(t *testing.T) {
	css := `@font-face { src: url("fonts/a.woff2") format("woff2"), url('fonts/a.ttf'); }
	body { background: url(/bg.png); }`

	matches := cssURLPattern.FindAllStringSubmatch(css, -1)
	require.Len(t, matches, 3)
	assert.Equal(t, "fonts/a.woff2", matches[0][1])
	assert.Equal(t, "fonts/a.ttf", matches[1][1])
	assert.Equal(t, "/bg.png", matches[2][1])
}

func TestEmbedFonts_RewritesStylesheet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fonts/body.woff2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("woff2-bytes"))
	})
	mux.HandleFunc("/fonts/broken.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.NewDefaultClonerConfig()
	outputDir := t.TempDir()
	engine := newTestEngine(t, cfg, "")

	cssPath := filepath.Join(outputDir, "assets", "css", "style_0.css")
	require.NoError(t, os.MkdirAll(filepath.Dir(cssPath), 0755))
	css := fmt.Sprintf(`@font-face { src: url("%s/fonts/body.woff2"); }
@font-face { src: url("%s/fonts/broken.ttf"); }
body { background: url(/bg.png); }`, server.URL, server.URL)
	require.NoError(t, os.WriteFile(cssPath, []byte(css), 0644))

	captured := map[string]*assetRef{
		server.URL + "/style.css": {
			absoluteURL: server.URL + "/style.css",
			kind:        assetStylesheet,
			localPath:   "assets/css/style_0.css",
			saved:       true,
		},
	}

	base := mustParseURL(t, server.URL+"/")
	count := engine.embedFonts(context.Background(), captured, base, outputDir)
	assert.Equal(t, 1, count)

	rewritten, err := os.ReadFile(cssPath)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "url(../fonts/font_0.woff2)")
	assert.Contains(t, string(rewritten), "broken.ttf", "failed font keeps its original reference")
	assert.Contains(t, string(rewritten), "url(/bg.png)", "non-font url() references are untouched")

	fontData, err := os.ReadFile(filepath.Join(outputDir, "assets", "fonts", "font_0.woff2"))
	require.NoError(t, err)
	assert.Equal(t, "woff2-bytes", string(fontData))
}

func TestEmbedFonts_SkipsUnsavedStylesheets(t *testing.T) {
	engine := newTestEngine(t, config.NewDefaultClonerConfig(), "")

	captured := map[string]*assetRef{
		"https://example.com/style.css": {
			absoluteURL: "https://example.com/style.css",
			kind:        assetStylesheet,
			localPath:   "assets/css/style_0.css",
		},
	}

	count := engine.embedFonts(context.Background(), captured, mustParseURL(t, "https://example.com/"), t.TempDir())
	assert.Equal(t, 0, count)
}
