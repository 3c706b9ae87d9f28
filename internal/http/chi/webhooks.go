package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/webhook"
)

/* HTTP layer DTOs for the destination API
 * Separate from domain entities to avoid leaking internal structure
 */

type customFieldDTO struct {
	Name         string `json:"name" validate:"required"`
	Label        string `json:"label"`
	Type         string `json:"type" validate:"omitempty,oneof=text number boolean email phone url"`
	Required     bool   `json:"required"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

type webhookRequest struct {
	Name         string           `json:"name" validate:"required"`
	URL          string           `json:"url" validate:"required,url"`
	CustomFields []customFieldDTO `json:"customFields" validate:"dive"`
	SendFields   []string         `json:"sendFields"`
}

type updateWebhookRequest struct {
	Name         *string          `json:"name"`
	URL          *string          `json:"url" validate:"omitempty,url"`
	IsActive     *bool            `json:"isActive"`
	CustomFields []customFieldDTO `json:"customFields" validate:"omitempty,dive"`
	SendFields   []string         `json:"sendFields"`
}

type webhookResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	URL           string           `json:"url"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
	LastTriggered string           `json:"lastTriggered,omitempty"`
	SuccessCount  int64            `json:"successCount"`
	FailureCount  int64            `json:"failureCount"`
	CustomFields  []customFieldDTO `json:"customFields"`
	SendFields    []string         `json:"sendFields"`
}

type webhookEnvelope struct {
	Success bool            `json:"success"`
	Webhook webhookResponse `json:"webhook"`
}

type webhooksEnvelope struct {
	Success  bool              `json:"success"`
	Webhooks []webhookResponse `json:"webhooks"`
}

type logResponse struct {
	ID          string         `json:"id"`
	WebhookID   string         `json:"webhookId"`
	LeadID      string         `json:"leadId"`
	URL         string         `json:"url"`
	Status      webhook.Status `json:"status"`
	HTTPStatus  *int           `json:"httpStatus,omitempty"`
	Response    string         `json:"response,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attempt     int            `json:"attempt"`
	MaxAttempts int            `json:"maxAttempts"`
	CreatedAt   string         `json:"createdAt"`
	NextRetry   string         `json:"nextRetry,omitempty"`
}

type logsEnvelope struct {
	Success bool          `json:"success"`
	Logs    []logResponse `json:"logs"`
}

type testEnvelope struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
}

func toCustomFields(in []customFieldDTO) []webhook.CustomField {
	if in == nil {
		return nil
	}
	out := make([]webhook.CustomField, 0, len(in))
	for _, f := range in {
		out = append(out, webhook.CustomField{
			Name:         f.Name,
			Label:        f.Label,
			Type:         webhook.NewFieldType(f.Type),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		})
	}
	return out
}

func toWebhookResponse(d webhook.Destination) webhookResponse {
	resp := webhookResponse{
		ID:           d.ID,
		Name:         d.Name,
		URL:          d.URL,
		IsActive:     d.IsActive,
		CreatedAt:    formatTime(d.CreatedAt),
		UpdatedAt:    formatTime(d.UpdatedAt),
		SuccessCount: d.SuccessCount,
		FailureCount: d.FailureCount,
		CustomFields: make([]customFieldDTO, 0, len(d.CustomFields)),
		SendFields:   d.SendFields,
	}
	if d.LastTriggeredAt != nil {
		resp.LastTriggered = formatTime(*d.LastTriggeredAt)
	}
	if resp.SendFields == nil {
		resp.SendFields = []string{}
	}
	for _, f := range d.CustomFields {
		resp.CustomFields = append(resp.CustomFields, customFieldDTO{
			Name:         f.Name,
			Label:        f.Label,
			Type:         f.Type.String(),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		})
	}
	return resp
}

func toLogResponse(l webhook.DeliveryLog) logResponse {
	resp := logResponse{
		ID:          l.ID,
		WebhookID:   l.DestinationID,
		LeadID:      l.LeadID,
		URL:         l.URL,
		Status:      l.Status,
		HTTPStatus:  l.HTTPStatus,
		Response:    l.ResponseExcerpt,
		Error:       l.ErrorMessage,
		Attempt:     l.Attempt,
		MaxAttempts: l.MaxAttempts,
		CreatedAt:   formatTime(l.CreatedAt),
	}
	if l.NextRetryAt != nil {
		resp.NextRetry = formatTime(*l.NextRetryAt)
	}
	return resp
}

func getWebhooks(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := webhookService.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		result := make([]webhookResponse, 0, len(all))
		for _, d := range all {
			result = append(result, toWebhookResponse(d))
		}
		writeJSON(w, http.StatusOK, webhooksEnvelope{Success: true, Webhooks: result})
	})
}

func postWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req webhookRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		d, err := webhookService.Create(r.Context(), webhook.CreateInput{
			Name:         req.Name,
			URL:          req.URL,
			SendFields:   req.SendFields,
			CustomFields: toCustomFields(req.CustomFields),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, webhookEnvelope{Success: true, Webhook: toWebhookResponse(d)})
	})
}

func getWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := webhookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, webhookEnvelope{Success: true, Webhook: toWebhookResponse(d)})
	})
}

func putWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req updateWebhookRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		d, err := webhookService.Update(r.Context(), chi.URLParam(r, "id"), webhook.Changes{
			Name:         req.Name,
			URL:          req.URL,
			IsActive:     req.IsActive,
			SendFields:   req.SendFields,
			CustomFields: toCustomFields(req.CustomFields),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, webhookEnvelope{Success: true, Webhook: toWebhookResponse(d)})
	})
}

func deleteWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := webhookService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
}

// testWebhook sends a synthetic lead through the regular delivery chain
func testWebhook(webhookService webhook.UseCase, tester Tester) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := webhookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ev := testEvent()
		tester.DispatchTo(d, ev)
		writeJSON(w, http.StatusAccepted, testEnvelope{Success: true, LeadID: ev.LeadID})
	})
}

func testEvent() lead.Event {
	l := lead.Lead{
		ID:       "test_" + uuid.NewString(),
		Phone:    "+5511999999999",
		Source:   "webhook-test",
		Name:     "Test Lead",
		Email:    "test@example.com",
		Company:  "LeadHub",
		Message:  "Webhook test delivery",
		Status:   lead.New,
		Priority: lead.Medium,
	}
	l.CreatedAt = nowUTC()
	l.UpdatedAt = l.CreatedAt
	return l.Event()
}

func getWebhookLogs(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, r, err)
			return
		}
		logs, err := webhookService.Logs(r.Context(), webhook.LogQuery{
			DestinationID: r.URL.Query().Get("destination_id"),
			Limit:         limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		result := make([]logResponse, 0, len(logs))
		for _, l := range logs {
			result = append(result, toLogResponse(l))
		}
		writeJSON(w, http.StatusOK, logsEnvelope{Success: true, Logs: result})
	})
}
