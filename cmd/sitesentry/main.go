package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/datastore"
	"github.com/sitesentry/sitesentry/internal/fetcher"
	"github.com/sitesentry/sitesentry/internal/logger"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/monitor"
	"github.com/sitesentry/sitesentry/internal/notifier"
	"github.com/sitesentry/sitesentry/internal/replicator"
	"github.com/sitesentry/sitesentry/internal/snapshot"
	"github.com/sitesentry/sitesentry/internal/visual"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.ConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load global config: %v", err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	browserFetcher := fetcher.NewBrowserFetcher(gCfg.FetcherConfig, zLogger)
	if err := browserFetcher.Start(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to start browser fetcher")
	}
	defer browserFetcher.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch flags.Mode {
	case "watch":
		runWatch(ctx, gCfg, browserFetcher, flags, zLogger)
	case "check":
		runCheck(ctx, gCfg, browserFetcher, flags, zLogger)
	case "clone":
		runClone(ctx, gCfg, browserFetcher, flags, zLogger)
	case "visualdiff":
		runVisualDiff(ctx, gCfg, browserFetcher, flags, zLogger)
	default:
		zLogger.Fatal().Str("mode", flags.Mode).Msg("Unknown mode")
	}
}

func buildService(gCfg *config.GlobalConfig, browserFetcher fetcher.PageFetcher, zLogger zerolog.Logger) (*monitor.Service, func()) {
	var store snapshot.Store
	if gCfg.StorageConfig.SnapshotDBPath != "" {
		sqliteStore, err := snapshot.NewSQLiteStore(gCfg.StorageConfig.SnapshotDBPath, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to open snapshot database")
		}
		store = sqliteStore
	} else {
		store = snapshot.NewMemoryStore()
	}

	var history *datastore.HistoryStore
	if gCfg.MonitorConfig.ArchiveResults && gCfg.StorageConfig.HistoryDir != "" {
		var err error
		history, err = datastore.NewHistoryStore(gCfg.StorageConfig.HistoryDir, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to initialize history store")
		}
	}

	dispatcher := notifier.NewDispatcher(gCfg.NotificationConfig, zLogger)
	service := monitor.NewService(gCfg.MonitorConfig, browserFetcher, store, dispatcher, history, zLogger)

	cleanup := func() {
		if err := store.Close(); err != nil {
			zLogger.Warn().Err(err).Msg("Failed to close snapshot store")
		}
	}
	return service, cleanup
}

func loadTargets(path string) ([]models.MonitorTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var targets []models.MonitorTarget
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func registerAll(ctx context.Context, service *monitor.Service, flags AppFlags, zLogger zerolog.Logger) []*models.MonitorTarget {
	if flags.TargetsFile == "" {
		zLogger.Fatal().Msg("-targets file is required for this mode")
	}
	targets, err := loadTargets(flags.TargetsFile)
	if err != nil {
		zLogger.Fatal().Err(err).Str("path", flags.TargetsFile).Msg("Failed to load targets file")
	}

	registered := make([]*models.MonitorTarget, 0, len(targets))
	for _, target := range targets {
		reg, err := service.RegisterMonitor(ctx, target)
		if err != nil {
			zLogger.Fatal().Err(err).Str("url", target.URL).Msg("Registration failed")
		}
		registered = append(registered, reg)
	}
	return registered
}

func runWatch(ctx context.Context, gCfg *config.GlobalConfig, browserFetcher fetcher.PageFetcher, flags AppFlags, zLogger zerolog.Logger) {
	service, cleanup := buildService(gCfg, browserFetcher, zLogger)
	defer cleanup()

	registerAll(ctx, service, flags, zLogger)

	scheduler := monitor.NewScheduler(service, zLogger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	zLogger.Info().Msg("Watching targets; press Ctrl-C to stop")
	<-ctx.Done()
}

func runCheck(ctx context.Context, gCfg *config.GlobalConfig, browserFetcher fetcher.PageFetcher, flags AppFlags, zLogger zerolog.Logger) {
	service, cleanup := buildService(gCfg, browserFetcher, zLogger)
	defer cleanup()

	for _, target := range registerAll(ctx, service, flags, zLogger) {
		result, err := service.CheckForChanges(ctx, target.ID)
		if err != nil {
			zLogger.Error().Err(err).Str("url", target.URL).Msg("Check failed")
			continue
		}
		printJSON(result)
	}
}

func runClone(ctx context.Context, gCfg *config.GlobalConfig, browserFetcher fetcher.PageFetcher, flags AppFlags, zLogger zerolog.Logger) {
	if flags.URL == "" {
		zLogger.Fatal().Msg("-url is required for clone mode")
	}

	engine := replicator.NewEngine(gCfg.ClonerConfig, browserFetcher, zLogger)
	bundle, err := engine.Clone(ctx, flags.URL)
	if err != nil {
		zLogger.Fatal().Err(err).Str("url", flags.URL).Msg("Clone failed")
	}
	printJSON(bundle)
}

func runVisualDiff(ctx context.Context, gCfg *config.GlobalConfig, browserFetcher fetcher.PageFetcher, flags AppFlags, zLogger zerolog.Logger) {
	if flags.ReferenceURL == "" || flags.CurrentURL == "" {
		zLogger.Fatal().Msg("-ref and -cur are required for visualdiff mode")
	}

	differ := visual.NewDiffer(gCfg.VisualDiffConfig, browserFetcher, zLogger)
	comparison, err := differ.Compare(ctx, flags.ReferenceURL, flags.CurrentURL)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Visual comparison failed")
	}
	printJSON(comparison)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
