package models

// MonitorSchedule defines how often a target is checked.
type MonitorSchedule string

const (
	ScheduleHourly MonitorSchedule = "hourly"
	ScheduleDaily  MonitorSchedule = "daily"
	ScheduleWeekly MonitorSchedule = "weekly"
)

// AlertTrigger defines which change classifications fire an alert.
type AlertTrigger string

const (
	TriggerAnyChange       AlertTrigger = "any-change"
	TriggerContentChange   AlertTrigger = "content-change"
	TriggerPriceChange     AlertTrigger = "price-change"
	TriggerStructureChange AlertTrigger = "structure-change"
)

// AlertChannel identifies a delivery mechanism for change alerts.
type AlertChannel string

const (
	ChannelWebhook AlertChannel = "webhook"
	ChannelEmail   AlertChannel = "email"
	ChannelSlack   AlertChannel = "slack"
)

// ChannelConfig holds per-channel delivery settings for a target.
type ChannelConfig struct {
	WebhookURL      string   `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	SlackWebhookURL string   `json:"slack_webhook_url,omitempty" yaml:"slack_webhook_url,omitempty"`
	EmailRecipients []string `json:"email_recipients,omitempty" yaml:"email_recipients,omitempty"`
}

// MonitorTarget is a registered watch on a single URL.
// The ID is unique and stable for the life of the monitor; targets are
// mutated only by re-registration and never auto-deleted.
type MonitorTarget struct {
	ID            string          `json:"id" yaml:"id"`
	URL           string          `json:"url" yaml:"url"`
	Schedule      MonitorSchedule `json:"schedule" yaml:"schedule"`
	AlertTrigger  AlertTrigger    `json:"alert_trigger" yaml:"alert_trigger"`
	AlertChannels []AlertChannel  `json:"alert_channels" yaml:"alert_channels"`
	ChannelConfig ChannelConfig   `json:"channel_config" yaml:"channel_config"`
}

// HasChannel reports whether the target is configured for the given channel.
func (t *MonitorTarget) HasChannel(channel AlertChannel) bool {
	for _, c := range t.AlertChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// ShouldAlert reports whether a change of the given type matches the
// target's alert trigger.
func (t *MonitorTarget) ShouldAlert(changeType ChangeType) bool {
	switch t.AlertTrigger {
	case TriggerAnyChange:
		return changeType != ChangeTypeNone
	case TriggerContentChange:
		return changeType == ChangeTypeContent
	case TriggerPriceChange:
		return changeType == ChangeTypePrice
	case TriggerStructureChange:
		return changeType == ChangeTypeStructure
	default:
		return false
	}
}
