package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"
)

// EmailSink delivers change alerts over SMTP to the target's configured
// recipients.
type EmailSink struct {
	logger zerolog.Logger
	cfg    config.NotificationConfig
	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSink creates an email sink from the notification configuration.
func NewEmailSink(logger zerolog.Logger, cfg config.NotificationConfig) *EmailSink {
	return &EmailSink{
		logger: logger.With().Str("component", "EmailSink").Logger(),
		cfg:    cfg,
		send:   smtp.SendMail,
	}
}

// Channel identifies this sink.
func (es *EmailSink) Channel() models.AlertChannel {
	return models.ChannelEmail
}

// Deliver sends one message covering all configured recipients.
func (es *EmailSink) Deliver(ctx context.Context, target *models.MonitorTarget, result *models.ChangeResult) models.AlertDeliveryRecord {
	record := models.AlertDeliveryRecord{
		EndpointID: strings.Join(target.ChannelConfig.EmailRecipients, ","),
		Channel:    models.ChannelEmail,
	}

	recipients := target.ChannelConfig.EmailRecipients
	if len(recipients) == 0 {
		record.ErrorMessage = "no email recipients configured"
		return record
	}
	if es.cfg.SMTPHost == "" {
		record.ErrorMessage = "no SMTP host configured"
		return record
	}

	var auth smtp.Auth
	if es.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", es.cfg.SMTPUsername, es.cfg.SMTPPassword, es.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", es.cfg.SMTPHost, es.cfg.SMTPPort)
	msg := formatEmailMessage(es.cfg.EmailFrom, recipients, target, result)

	if err := es.send(addr, auth, es.cfg.EmailFrom, recipients, msg); err != nil {
		es.logger.Warn().Err(err).Str("smtp_addr", addr).Msg("Email delivery failed")
		record.ErrorMessage = err.Error()
		return record
	}

	record.Success = true
	return record
}

func formatEmailMessage(from string, to []string, target *models.MonitorTarget, result *models.ChangeResult) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: Change detected on %s\r\n", target.URL)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "A %s change was detected on %s at %s.\r\n\r\n",
		result.ChangeType, target.URL, result.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	for _, diff := range result.Differences {
		fmt.Fprintf(&b, "- %s\r\n", diff)
	}
	return []byte(b.String())
}
