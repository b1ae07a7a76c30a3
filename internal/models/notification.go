package models

import "time"

// WebhookPayload is the JSON envelope POSTed to webhook endpoints.
type WebhookPayload struct {
	URL         string     `json:"url"`
	ChangeType  ChangeType `json:"changeType"`
	Differences []string   `json:"differences"`
	Timestamp   string     `json:"timestamp"`
}

// NewWebhookPayload builds the wire envelope for a change result.
func NewWebhookPayload(result *ChangeResult) WebhookPayload {
	return WebhookPayload{
		URL:         result.URL,
		ChangeType:  result.ChangeType,
		Differences: result.Differences,
		Timestamp:   result.Timestamp.UTC().Format(time.RFC3339),
	}
}

// AlertDeliveryRecord is the per-channel outcome of one dispatch.
type AlertDeliveryRecord struct {
	EndpointID   string       `json:"endpoint_id"`
	Channel      AlertChannel `json:"channel"`
	Success      bool         `json:"success"`
	HTTPStatus   int          `json:"http_status,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// DispatchReport aggregates the per-channel delivery records for one
// change result. Dispatch as a whole never fails because a channel did.
type DispatchReport struct {
	TargetID   string                `json:"target_id"`
	Records    []AlertDeliveryRecord `json:"records"`
	Dispatched time.Time             `json:"dispatched"`
}

// SuccessCount returns the number of successful deliveries.
func (r *DispatchReport) SuccessCount() int {
	count := 0
	for _, rec := range r.Records {
		if rec.Success {
			count++
		}
	}
	return count
}

// FailureCount returns the number of failed deliveries.
func (r *DispatchReport) FailureCount() int {
	return len(r.Records) - r.SuccessCount()
}
