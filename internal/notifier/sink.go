// Package notifier delivers structured change events to a target's
// configured alert channels. Each channel is an independent AlertSink;
// one sink failing never prevents the others from being attempted.
package notifier

import (
	"context"

	"github.com/sitesentry/sitesentry/internal/models"
)

// AlertSink is one delivery mechanism for change alerts. Deliver reports
// its outcome as a record rather than a fault so the dispatcher can
// aggregate partial failures.
type AlertSink interface {
	Channel() models.AlertChannel
	Deliver(ctx context.Context, target *models.MonitorTarget, result *models.ChangeResult) models.AlertDeliveryRecord
}
