package redis

import (
	"time"

	"github.com/marcelsud/leadhub/webhook"
)

// customFieldRecord is the JSON shape stored in the custom_fields hash field
type customFieldRecord struct {
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	Type         string `json:"type"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

func toCustomFieldRecords(fields []webhook.CustomField) []customFieldRecord {
	if fields == nil {
		return nil
	}
	out := make([]customFieldRecord, len(fields))
	for i, f := range fields {
		out[i] = customFieldRecord{
			Name:         f.Name,
			Label:        f.Label,
			Type:         f.Type.String(),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		}
	}
	return out
}

func fromCustomFieldRecords(records []customFieldRecord) []webhook.CustomField {
	out := make([]webhook.CustomField, len(records))
	for i, r := range records {
		out[i] = webhook.CustomField{
			Name:         r.Name,
			Label:        r.Label,
			Type:         webhook.NewFieldType(r.Type),
			Required:     r.Required,
			DefaultValue: r.DefaultValue,
		}
	}
	return out
}

// logRecord is the JSON shape of one delivery log list entry
type logRecord struct {
	ID              string     `json:"id"`
	DestinationID   string     `json:"destination_id"`
	LeadID          string     `json:"lead_id"`
	URL             string     `json:"url"`
	Status          string     `json:"status"`
	HTTPStatus      *int       `json:"http_status,omitempty"`
	ResponseExcerpt string     `json:"response_excerpt,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	Attempt         int        `json:"attempt"`
	MaxAttempts     int        `json:"max_attempts"`
	CreatedAt       time.Time  `json:"created_at"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
}

func toRecord(l webhook.DeliveryLog) logRecord {
	return logRecord{
		ID:              l.ID,
		DestinationID:   l.DestinationID,
		LeadID:          l.LeadID,
		URL:             l.URL,
		Status:          l.Status.String(),
		HTTPStatus:      l.HTTPStatus,
		ResponseExcerpt: l.ResponseExcerpt,
		ErrorMessage:    l.ErrorMessage,
		Attempt:         l.Attempt,
		MaxAttempts:     l.MaxAttempts,
		CreatedAt:       l.CreatedAt.UTC(),
		NextRetryAt:     l.NextRetryAt,
	}
}

func (r logRecord) toLog() webhook.DeliveryLog {
	return webhook.DeliveryLog{
		ID:              r.ID,
		DestinationID:   r.DestinationID,
		LeadID:          r.LeadID,
		URL:             r.URL,
		Status:          webhook.NewStatus(r.Status),
		HTTPStatus:      r.HTTPStatus,
		ResponseExcerpt: r.ResponseExcerpt,
		ErrorMessage:    r.ErrorMessage,
		Attempt:         r.Attempt,
		MaxAttempts:     r.MaxAttempts,
		CreatedAt:       r.CreatedAt,
		NextRetryAt:     r.NextRetryAt,
	}
}
