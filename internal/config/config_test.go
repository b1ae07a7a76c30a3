package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, 2, cfg.FetcherConfig.PoolSize)
	assert.Equal(t, 60000, cfg.FetcherConfig.NavigationTimeoutMs)
	assert.Equal(t, 2000, cfg.FetcherConfig.SettleDelayMs)
	assert.Equal(t, 1920, cfg.FetcherConfig.WindowWidth)
	assert.Equal(t, 1080, cfg.FetcherConfig.WindowHeight)

	assert.Equal(t, 20, cfg.ClonerConfig.MaxStylesheets)
	assert.Equal(t, 20, cfg.ClonerConfig.MaxScripts)
	assert.Equal(t, 50, cfg.ClonerConfig.MaxImages)
	assert.Equal(t, 20, cfg.ClonerConfig.MaxFonts)

	assert.Equal(t, 60, cfg.MonitorConfig.SchedulerTickSecs)
	assert.True(t, cfg.MonitorConfig.ArchiveResults)

	assert.Empty(t, cfg.StorageConfig.SnapshotDBPath, "default snapshot store is in-memory")
	assert.Equal(t, "history", cfg.StorageConfig.HistoryDir)
}

func TestLoadGlobalConfig_NoFileUsesDefaults(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultGlobalConfig().FetcherConfig, cfg.FetcherConfig)
}

func TestLoadGlobalConfig_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
fetcher_config:
  pool_size: 4
cloner_config:
  max_images: 10
storage_config:
  snapshot_db_path: /tmp/snapshots.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.FetcherConfig.PoolSize)
	assert.Equal(t, 10, cfg.ClonerConfig.MaxImages)
	assert.Equal(t, "/tmp/snapshots.db", cfg.StorageConfig.SnapshotDBPath)

	// Untouched sections keep their defaults.
	assert.Equal(t, 60000, cfg.FetcherConfig.NavigationTimeoutMs)
	assert.Equal(t, 20, cfg.ClonerConfig.MaxStylesheets)
}

func TestLoadGlobalConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"monitor_config": {"max_concurrent": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MonitorConfig.MaxConcurrent)
}

func TestLoadGlobalConfig_ValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
fetcher_config:
  pool_size: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadGlobalConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestGetConfigPath_ExplicitWins(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "mine.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("{}"), 0644))

	t.Setenv("SITESENTRY_CONFIG_PATH", "")
	assert.Equal(t, explicit, GetConfigPath(explicit))
}

func TestGetConfigPath_EnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(envPath, []byte("{}"), 0644))

	t.Setenv("SITESENTRY_CONFIG_PATH", envPath)
	assert.Equal(t, envPath, GetConfigPath(filepath.Join(dir, "missing.yaml")))
}
