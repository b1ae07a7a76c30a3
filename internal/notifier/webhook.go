package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/models"
)

// WebhookSink POSTs the JSON change envelope to the target's webhook URL.
// Any non-2xx response is a delivery failure with the status recorded, not
// a fault.
type WebhookSink struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewWebhookSink creates a webhook sink using the given HTTP client.
func NewWebhookSink(logger zerolog.Logger, httpClient *http.Client) *WebhookSink {
	return &WebhookSink{
		logger:     logger.With().Str("component", "WebhookSink").Logger(),
		httpClient: httpClient,
	}
}

// Channel identifies this sink.
func (ws *WebhookSink) Channel() models.AlertChannel {
	return models.ChannelWebhook
}

// Deliver sends the change envelope to the configured endpoint.
func (ws *WebhookSink) Deliver(ctx context.Context, target *models.MonitorTarget, result *models.ChangeResult) models.AlertDeliveryRecord {
	record := models.AlertDeliveryRecord{
		EndpointID: target.ChannelConfig.WebhookURL,
		Channel:    models.ChannelWebhook,
	}

	endpoint := target.ChannelConfig.WebhookURL
	if endpoint == "" {
		record.ErrorMessage = "no webhook URL configured"
		return record
	}

	payload := models.NewWebhookPayload(result)
	body, err := json.Marshal(payload)
	if err != nil {
		record.ErrorMessage = "failed to marshal webhook payload: " + err.Error()
		return record
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		record.ErrorMessage = "failed to create webhook request: " + err.Error()
		return record
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		ws.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Webhook delivery failed")
		record.ErrorMessage = err.Error()
		return record
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	record.HTTPStatus = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		record.Success = true
	} else {
		ws.logger.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("Webhook endpoint returned non-2xx")
		record.ErrorMessage = "webhook endpoint returned " + resp.Status
	}
	return record
}
