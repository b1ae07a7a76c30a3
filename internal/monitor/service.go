// Package monitor orchestrates target registration, scheduled change
// checks, and alert dispatch.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/datastore"
	"github.com/sitesentry/sitesentry/internal/detector"
	"github.com/sitesentry/sitesentry/internal/fetcher"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/notifier"
	"github.com/sitesentry/sitesentry/internal/snapshot"
)

// Service owns the target registry and wires fetcher, detector, store, and
// dispatcher into the check cycle. Targets are caller-owned: created by
// registration, mutated only by re-registration, never auto-deleted.
type Service struct {
	cfg        config.MonitorConfig
	logger     zerolog.Logger
	fetcher    fetcher.PageFetcher
	store      snapshot.Store
	detector   *detector.Detector
	dispatcher *notifier.Dispatcher
	history    *datastore.HistoryStore

	targetsMu sync.RWMutex
	targets   map[string]*models.MonitorTarget

	// checkMutexes serializes concurrent checks per target id so two
	// checks can never both read the same stale baseline.
	checkMutexes *snapshot.KeyMutexManager
}

// NewService creates the monitoring service. The history store may be nil
// to disable check archiving.
func NewService(
	cfg config.MonitorConfig,
	pageFetcher fetcher.PageFetcher,
	store snapshot.Store,
	dispatcher *notifier.Dispatcher,
	history *datastore.HistoryStore,
	logger zerolog.Logger,
) *Service {
	instanceLogger := logger.With().Str("component", "MonitorService").Logger()
	return &Service{
		cfg:          cfg,
		logger:       instanceLogger,
		fetcher:      pageFetcher,
		store:        store,
		detector:     detector.NewDetector(store, logger),
		dispatcher:   dispatcher,
		history:      history,
		targets:      make(map[string]*models.MonitorTarget),
		checkMutexes: snapshot.NewKeyMutexManager(),
	}
}

// RegisterMonitor registers (or re-registers) a target and captures its
// initial baseline. Registration fails loudly if the baseline capture
// fails; there is no silent partial registration.
func (s *Service) RegisterMonitor(ctx context.Context, target models.MonitorTarget) (*models.MonitorTarget, error) {
	if strings.TrimSpace(target.URL) == "" {
		return nil, common.NewValidationError("url", target.URL, "target URL cannot be empty")
	}
	if target.ID == "" {
		target.ID = uuid.NewString()
	}
	if target.Schedule == "" {
		target.Schedule = models.ScheduleDaily
	}
	if target.AlertTrigger == "" {
		target.AlertTrigger = models.TriggerAnyChange
	}

	page, err := s.fetcher.Fetch(ctx, target.URL, fetcher.FetchOptions{})
	if err != nil {
		return nil, common.WrapErrorf(err, "baseline capture failed for %s", target.URL)
	}

	baseline, err := detector.BuildSnapshot(page.HTML, page.Metadata.FetchedAt)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to build baseline snapshot for %s", target.URL)
	}

	if err := s.store.Put(target.ID, baseline); err != nil {
		return nil, common.WrapErrorf(err, "failed to store baseline for target %s", target.ID)
	}

	s.targetsMu.Lock()
	s.targets[target.ID] = &target
	s.targetsMu.Unlock()

	s.logger.Info().
		Str("target_id", target.ID).
		Str("url", target.URL).
		Str("schedule", string(target.Schedule)).
		Msg("Monitor registered with baseline")

	return &target, nil
}

// RemoveMonitor deletes a target and its baseline. Lifecycle is
// caller-owned; the service never removes targets on its own.
func (s *Service) RemoveMonitor(targetID string) error {
	s.targetsMu.Lock()
	delete(s.targets, targetID)
	s.targetsMu.Unlock()

	return s.store.Remove(targetID)
}

// Target returns the registered target, or nil.
func (s *Service) Target(targetID string) *models.MonitorTarget {
	s.targetsMu.RLock()
	defer s.targetsMu.RUnlock()
	return s.targets[targetID]
}

// Targets returns a copy of the current registry.
func (s *Service) Targets() []*models.MonitorTarget {
	s.targetsMu.RLock()
	defer s.targetsMu.RUnlock()

	targets := make([]*models.MonitorTarget, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t)
	}
	return targets
}

// CheckForChanges runs one detection cycle for the target: fetch, build
// snapshot, detect against the baseline, replace the baseline. A fetch
// failure propagates unmodified — it is never reported as "no change".
// Checks on the same target are serialized; different targets run freely
// in parallel.
func (s *Service) CheckForChanges(ctx context.Context, targetID string) (*models.ChangeResult, error) {
	target := s.Target(targetID)
	if target == nil {
		return nil, common.WrapErrorf(common.ErrNotFound, "target %s is not registered", targetID)
	}

	mu := s.checkMutexes.Get(targetID)
	mu.Lock()
	defer mu.Unlock()

	page, err := s.fetcher.Fetch(ctx, target.URL, fetcher.FetchOptions{})
	if err != nil {
		return nil, err
	}

	fresh, err := detector.BuildSnapshot(page.HTML, page.Metadata.FetchedAt)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to build snapshot for %s", target.URL)
	}

	result, err := s.detector.Detect(targetID, fresh)
	if err != nil {
		return nil, err
	}
	result.URL = target.URL

	if s.history != nil && s.cfg.ArchiveResults {
		if err := s.history.Append(result); err != nil {
			s.logger.Warn().Err(err).Str("target_id", targetID).Msg("Failed to archive check result")
		}
	}

	return result, nil
}

// Dispatch delivers a change result to the target's configured channels.
func (s *Service) Dispatch(ctx context.Context, targetID string, result *models.ChangeResult) (*models.DispatchReport, error) {
	target := s.Target(targetID)
	if target == nil {
		return nil, common.WrapErrorf(common.ErrNotFound, "target %s is not registered", targetID)
	}
	return s.dispatcher.Dispatch(ctx, target, result), nil
}

// CheckInterval maps a schedule to its wall-clock period.
func CheckInterval(schedule models.MonitorSchedule) time.Duration {
	switch schedule {
	case models.ScheduleHourly:
		return time.Hour
	case models.ScheduleWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
