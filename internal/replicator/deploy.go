package replicator

import (
	"os"
	"path/filepath"
)

// netlifyRedirects serves the entry document for any unknown path so the
// bundle works on static hosts with history-style routing.
const netlifyRedirects = "/*    /index.html   200\n"

const vercelConfig = `{
  "cleanUrls": true,
  "trailingSlash": false,
  "rewrites": [
    { "source": "/(.*)", "destination": "/index.html" }
  ]
}
`

// writeDeploymentDescriptors emits static-hosting redirect/rewrite rules at
// the bundle root so the output is deployable without further
// transformation.
func writeDeploymentDescriptors(outputDir string) error {
	if err := os.WriteFile(filepath.Join(outputDir, "_redirects"), []byte(netlifyRedirects), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "vercel.json"), []byte(vercelConfig), 0644)
}
