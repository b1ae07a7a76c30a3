package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"
)

// Dispatcher fans one change result out to every alert channel configured
// on a target and aggregates the per-channel outcomes. There is no retry
// or backoff here; callers needing resilience wrap Dispatch with their own
// retry policy.
type Dispatcher struct {
	logger zerolog.Logger
	sinks  map[models.AlertChannel]AlertSink
}

// NewDispatcher creates a dispatcher with the standard sink set.
func NewDispatcher(cfg config.NotificationConfig, logger zerolog.Logger) *Dispatcher {
	factory := common.NewHTTPClientFactory(logger)
	webhookClient := factory.CreateWebhookClient(time.Duration(cfg.WebhookTimeoutSecs) * time.Second)

	d := &Dispatcher{
		logger: logger.With().Str("component", "Dispatcher").Logger(),
		sinks:  make(map[models.AlertChannel]AlertSink),
	}
	d.RegisterSink(NewWebhookSink(logger, webhookClient))
	d.RegisterSink(NewSlackSink(logger, webhookClient))
	d.RegisterSink(NewEmailSink(logger, cfg))
	return d
}

// RegisterSink adds or replaces the sink for its channel.
func (d *Dispatcher) RegisterSink(sink AlertSink) {
	d.sinks[sink.Channel()] = sink
}

// Dispatch delivers the change result to every channel configured on the
// target. Channel deliveries run independently; a failing channel is
// recorded in the report and never aborts the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, target *models.MonitorTarget, result *models.ChangeResult) *models.DispatchReport {
	report := &models.DispatchReport{
		TargetID:   target.ID,
		Dispatched: time.Now(),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, channel := range target.AlertChannels {
		sink, ok := d.sinks[channel]
		if !ok {
			mu.Lock()
			report.Records = append(report.Records, models.AlertDeliveryRecord{
				Channel:      channel,
				ErrorMessage: "no sink registered for channel",
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(sink AlertSink) {
			defer wg.Done()
			record := sink.Deliver(ctx, target, result)
			mu.Lock()
			report.Records = append(report.Records, record)
			mu.Unlock()
		}(sink)
	}
	wg.Wait()

	d.logger.Info().
		Str("target_id", target.ID).
		Int("succeeded", report.SuccessCount()).
		Int("failed", report.FailureCount()).
		Msg("Dispatch completed")

	return report
}
