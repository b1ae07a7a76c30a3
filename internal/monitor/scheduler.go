package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/models"
)

// Scheduler drives periodic checks for every registered target. Each
// target's check cycle is an independent unit of work; due targets run
// concurrently up to the configured limit.
type Scheduler struct {
	service *Service
	logger  zerolog.Logger
	tick    time.Duration
	sem     chan struct{}

	mu          sync.Mutex
	lastChecked map[string]time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewScheduler creates a scheduler for the service.
func NewScheduler(service *Service, logger zerolog.Logger) *Scheduler {
	tick := time.Duration(service.cfg.SchedulerTickSecs) * time.Second
	if tick <= 0 {
		tick = time.Minute
	}
	maxConcurrent := service.cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	return &Scheduler{
		service:     service,
		logger:      logger.With().Str("component", "MonitorScheduler").Logger(),
		tick:        tick,
		sem:         make(chan struct{}, maxConcurrent),
		lastChecked: make(map[string]time.Time),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduling loop.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.mu.Lock()
	if sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = true
	sc.mu.Unlock()

	sc.wg.Add(1)
	go sc.loop(ctx)
	sc.logger.Info().Dur("tick", sc.tick).Msg("Monitor scheduler started")
}

// Stop halts the loop and waits for in-flight checks to finish.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = false
	sc.mu.Unlock()

	close(sc.stopChan)
	sc.wg.Wait()
	sc.logger.Info().Msg("Monitor scheduler stopped")
}

func (sc *Scheduler) loop(ctx context.Context) {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.stopChan:
			return
		case <-ticker.C:
			sc.runDueChecks(ctx)
		}
	}
}

func (sc *Scheduler) runDueChecks(ctx context.Context) {
	now := time.Now()
	for _, target := range sc.service.Targets() {
		if !sc.isDue(target, now) {
			continue
		}
		sc.markChecked(target.ID, now)

		sc.wg.Add(1)
		go func(target *models.MonitorTarget) {
			defer sc.wg.Done()

			sc.sem <- struct{}{}
			defer func() { <-sc.sem }()

			sc.checkAndAlert(ctx, target)
		}(target)
	}
}

func (sc *Scheduler) isDue(target *models.MonitorTarget, now time.Time) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	last, ok := sc.lastChecked[target.ID]
	if !ok {
		return true
	}
	return now.Sub(last) >= CheckInterval(target.Schedule)
}

func (sc *Scheduler) markChecked(targetID string, now time.Time) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.lastChecked[targetID] = now
}

func (sc *Scheduler) checkAndAlert(ctx context.Context, target *models.MonitorTarget) {
	result, err := sc.service.CheckForChanges(ctx, target.ID)
	if err != nil {
		sc.logger.Error().Err(err).Str("target_id", target.ID).Str("url", target.URL).Msg("Scheduled check failed")
		return
	}

	if !result.Changed || !target.ShouldAlert(result.ChangeType) {
		return
	}

	report, err := sc.service.Dispatch(ctx, target.ID, result)
	if err != nil {
		sc.logger.Error().Err(err).Str("target_id", target.ID).Msg("Dispatch failed")
		return
	}
	sc.logger.Info().
		Str("target_id", target.ID).
		Int("deliveries", len(report.Records)).
		Int("failed", report.FailureCount()).
		Msg("Change alert dispatched")
}
