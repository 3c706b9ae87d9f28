package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/webhook"
)

// Tester sends a synthetic event to one destination, bypassing its active flag
type Tester interface {
	DispatchTo(dest webhook.Destination, ev lead.Event)
}

// Handlers sets up the REST API. metricsHandler may be nil.
func Handlers(ctx context.Context, leadService lead.UseCase, webhookService webhook.UseCase, tester Tester, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("leadhub-api", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/leads", getLeads(leadService))
		r.Method(http.MethodPost, "/leads", postLead(leadService))
		r.Method(http.MethodGet, "/leads/{id}", getLead(leadService))
		r.Method(http.MethodPut, "/leads/{id}", putLead(leadService))
		r.Method(http.MethodDelete, "/leads/{id}", deleteLead(leadService))
		r.Method(http.MethodGet, "/dashboard/stats", getStats(leadService))

		r.Method(http.MethodGet, "/webhooks", getWebhooks(webhookService))
		r.Method(http.MethodPost, "/webhooks", postWebhook(webhookService))
		r.Method(http.MethodGet, "/webhooks/logs", getWebhookLogs(webhookService))
		r.Method(http.MethodGet, "/webhooks/{id}", getWebhook(webhookService))
		r.Method(http.MethodPut, "/webhooks/{id}", putWebhook(webhookService))
		r.Method(http.MethodDelete, "/webhooks/{id}", deleteWebhook(webhookService))
		r.Method(http.MethodPost, "/webhooks/{id}/test", testWebhook(webhookService, tester))
	})

	return r
}
