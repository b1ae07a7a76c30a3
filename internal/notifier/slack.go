package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/models"
)

// SlackSink posts a formatted change summary to a Slack incoming webhook.
type SlackSink struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewSlackSink creates a Slack sink using the given HTTP client.
func NewSlackSink(logger zerolog.Logger, httpClient *http.Client) *SlackSink {
	return &SlackSink{
		logger:     logger.With().Str("component", "SlackSink").Logger(),
		httpClient: httpClient,
	}
}

// Channel identifies this sink.
func (ss *SlackSink) Channel() models.AlertChannel {
	return models.ChannelSlack
}

type slackMessage struct {
	Text string `json:"text"`
}

// Deliver posts the change summary to the target's Slack webhook.
func (ss *SlackSink) Deliver(ctx context.Context, target *models.MonitorTarget, result *models.ChangeResult) models.AlertDeliveryRecord {
	record := models.AlertDeliveryRecord{
		EndpointID: target.ChannelConfig.SlackWebhookURL,
		Channel:    models.ChannelSlack,
	}

	endpoint := target.ChannelConfig.SlackWebhookURL
	if endpoint == "" {
		record.ErrorMessage = "no Slack webhook URL configured"
		return record
	}

	body, err := json.Marshal(slackMessage{Text: formatSlackText(result)})
	if err != nil {
		record.ErrorMessage = "failed to marshal Slack payload: " + err.Error()
		return record
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		record.ErrorMessage = "failed to create Slack request: " + err.Error()
		return record
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ss.httpClient.Do(req)
	if err != nil {
		ss.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Slack delivery failed")
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
		record.ErrorMessage = "Slack endpoint returned " + resp.Status
	}
	return record
}

func formatSlackText(result *models.ChangeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":warning: Change detected on %s (%s)", result.URL, result.ChangeType)
	for _, diff := range result.Differences {
		b.WriteString("\n• ")
		b.WriteString(diff)
	}
	return b.String()
}
