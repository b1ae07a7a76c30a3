package config

import (
	"github.com/sitesentry/sitesentry/internal/logger"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	FetcherConfig      FetcherConfig      `json:"fetcher_config,omitempty" yaml:"fetcher_config,omitempty"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	VisualDiffConfig   VisualDiffConfig   `json:"visual_diff_config,omitempty" yaml:"visual_diff_config,omitempty"`
	ClonerConfig       ClonerConfig       `json:"cloner_config,omitempty" yaml:"cloner_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	LogConfig          logger.LogConfig   `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		FetcherConfig:      NewDefaultFetcherConfig(),
		MonitorConfig:      NewDefaultMonitorConfig(),
		VisualDiffConfig:   NewDefaultVisualDiffConfig(),
		ClonerConfig:       NewDefaultClonerConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		LogConfig:          logger.NewDefaultLogConfig(),
	}
}

// FetcherConfig configures the headless page fetcher.
type FetcherConfig struct {
	ChromePath          string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserDataDir         string `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	PoolSize            int    `json:"pool_size,omitempty" yaml:"pool_size,omitempty" validate:"omitempty,gt=0"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms,omitempty" yaml:"navigation_timeout_ms,omitempty" validate:"omitempty,gt=0"`
	SettleDelayMs       int    `json:"settle_delay_ms,omitempty" yaml:"settle_delay_ms,omitempty" validate:"omitempty,gte=0"`
	WindowWidth         int    `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"omitempty,gt=0"`
	WindowHeight        int    `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"omitempty,gt=0"`
	UserAgent           string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NewDefaultFetcherConfig returns fetcher defaults.
func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		PoolSize:            2,
		NavigationTimeoutMs: 60000,
		SettleDelayMs:       2000,
		WindowWidth:         1920,
		WindowHeight:        1080,
		UserAgent:           "Mozilla/5.0 (compatible; SiteSentry/1.0)",
	}
}

// MonitorConfig configures target registration and scheduled checking.
type MonitorConfig struct {
	SchedulerTickSecs int  `json:"scheduler_tick_secs,omitempty" yaml:"scheduler_tick_secs,omitempty" validate:"omitempty,gt=0"`
	MaxConcurrent     int  `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty" validate:"omitempty,gt=0"`
	ArchiveResults    bool `json:"archive_results,omitempty" yaml:"archive_results,omitempty"`
}

// NewDefaultMonitorConfig returns monitor defaults.
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SchedulerTickSecs: 60,
		MaxConcurrent:     8,
		ArchiveResults:    true,
	}
}

// VisualDiffConfig configures screenshot comparison.
type VisualDiffConfig struct {
	OutputDir      string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	PixelTolerance int    `json:"pixel_tolerance,omitempty" yaml:"pixel_tolerance,omitempty" validate:"omitempty,gte=0,lte=255"`
	WriteDiffImage bool   `json:"write_diff_image,omitempty" yaml:"write_diff_image,omitempty"`
}

// NewDefaultVisualDiffConfig returns visual diff defaults.
func NewDefaultVisualDiffConfig() VisualDiffConfig {
	return VisualDiffConfig{
		OutputDir:      "screenshots",
		PixelTolerance: 16,
		WriteDiffImage: true,
	}
}

// ClonerConfig configures the replication engine.
type ClonerConfig struct {
	OutputRoot       string `json:"output_root,omitempty" yaml:"output_root,omitempty"`
	MaxStylesheets   int    `json:"max_stylesheets,omitempty" yaml:"max_stylesheets,omitempty" validate:"omitempty,gt=0"`
	MaxScripts       int    `json:"max_scripts,omitempty" yaml:"max_scripts,omitempty" validate:"omitempty,gt=0"`
	MaxImages        int    `json:"max_images,omitempty" yaml:"max_images,omitempty" validate:"omitempty,gt=0"`
	MaxFonts         int    `json:"max_fonts,omitempty" yaml:"max_fonts,omitempty" validate:"omitempty,gt=0"`
	AssetTimeoutSecs int    `json:"asset_timeout_secs,omitempty" yaml:"asset_timeout_secs,omitempty" validate:"omitempty,gt=0"`
	Parallelism      int    `json:"parallelism,omitempty" yaml:"parallelism,omitempty" validate:"omitempty,gt=0"`
}

// NewDefaultClonerConfig returns cloner defaults. The per-class caps bound
// worst-case wall-clock time and storage on pathological pages.
func NewDefaultClonerConfig() ClonerConfig {
	return ClonerConfig{
		OutputRoot:       "clones",
		MaxStylesheets:   20,
		MaxScripts:       20,
		MaxImages:        50,
		MaxFonts:         20,
		AssetTimeoutSecs: 30,
		Parallelism:      8,
	}
}

// NotificationConfig configures alert delivery.
type NotificationConfig struct {
	WebhookTimeoutSecs int    `json:"webhook_timeout_secs,omitempty" yaml:"webhook_timeout_secs,omitempty" validate:"omitempty,gt=0"`
	SMTPHost           string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort           int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,gt=0"`
	SMTPUsername       string `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword       string `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	EmailFrom          string `json:"email_from,omitempty" yaml:"email_from,omitempty" validate:"omitempty,email"`
}

// NewDefaultNotificationConfig returns notification defaults.
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		WebhookTimeoutSecs: 20,
		SMTPPort:           587,
	}
}

// StorageConfig configures snapshot and history persistence.
type StorageConfig struct {
	SnapshotDBPath string `json:"snapshot_db_path,omitempty" yaml:"snapshot_db_path,omitempty"`
	HistoryDir     string `json:"history_dir,omitempty" yaml:"history_dir,omitempty"`
}

// NewDefaultStorageConfig returns storage defaults. An empty SnapshotDBPath
// selects the in-memory snapshot store.
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		HistoryDir: "history",
	}
}
