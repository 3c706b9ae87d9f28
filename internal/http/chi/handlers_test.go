package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/leadhub/lead"
	leadmocks "github.com/marcelsud/leadhub/lead/mocks"
	"github.com/marcelsud/leadhub/webhook"
	webhookmocks "github.com/marcelsud/leadhub/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

/*
 * Handler tests use mocks of the use cases; the stores and the dispatcher are
 * covered by their own packages.
 */

type recordingTester struct {
	mu    sync.Mutex
	calls []struct {
		dest webhook.Destination
		ev   lead.Event
	}
}

func (r *recordingTester) DispatchTo(dest webhook.Destination, ev lead.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		dest webhook.Destination
		ev   lead.Event
	}{dest, ev})
}

type fixture struct {
	leads    *leadmocks.UseCase
	webhooks *webhookmocks.UseCase
	tester   *recordingTester
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		leads:    leadmocks.NewUseCase(t),
		webhooks: webhookmocks.NewUseCase(t),
		tester:   &recordingTester{},
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	f.handler = Handlers(context.Background(), f.leads, f.webhooks, f.tester, metrics)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestPostLead(t *testing.T) {
	created := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)

	t.Run("success - 201 with the stored lead", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("Create", mock.Anything, mock.MatchedBy(func(in lead.CreateInput) bool {
			return in.Phone == "+5511912345678" && in.Source == "landing" && in.Extra["_pixel"] == "fb"
		})).Return(lead.Lead{
			ID: "lead-1", Phone: "+5511912345678", Source: "landing",
			Status: lead.New, Priority: lead.Medium, Tags: []string{}, CreatedAt: created, UpdatedAt: created,
		}, nil)

		w := f.do(t, http.MethodPost, "/api/leads",
			`{"phone":"+5511912345678","source":"landing","extra":{"_pixel":"fb"}}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		l := body["lead"].(map[string]any)
		assert.Equal(t, "lead-1", l["id"])
		assert.Equal(t, "new", l["status"])
		assert.Equal(t, "2024-05-05T10:00:00.000Z", l["createdAt"])
	})

	t.Run("missing source is rejected by validation", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/leads", `{"phone":"1"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "source")
		f.leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/leads", `{"phone":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure is a 500 without details", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("Create", mock.Anything, mock.Anything).Return(lead.Lead{}, errors.New("pq: connection reset"))

		w := f.do(t, http.MethodPost, "/api/leads", `{"phone":"1","source":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestGetLeads(t *testing.T) {
	t.Run("passes filters and paging", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("List", mock.Anything, lead.Filter{Status: "new", Search: "ana", Page: 2, Limit: 5}).
			Return(lead.Page{Leads: []lead.Lead{{ID: "a"}}, Total: 6, Page: 2, Limit: 5}, nil)

		w := f.do(t, http.MethodGet, "/api/leads?status=new&search=ana&page=2&limit=5", "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(6), body["total"])
		assert.Len(t, body["leads"], 1)
	})

	t.Run("invalid page", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/api/leads?page=zero", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeadByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("Get", mock.Anything, "missing").Return(lead.Lead{}, lead.ErrNotFound)

		w := f.do(t, http.MethodGet, "/api/leads/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update status", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("Update", mock.Anything, "lead-1", mock.MatchedBy(func(c lead.Changes) bool {
			return c.Status != nil && *c.Status == lead.Qualified && c.Priority == nil
		})).Return(lead.Lead{ID: "lead-1", Status: lead.Qualified, Priority: lead.Medium}, nil)

		w := f.do(t, http.MethodPut, "/api/leads/lead-1", `{"status":"qualified"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "qualified", decodeBody(t, w)["lead"].(map[string]any)["status"])
	})

	t.Run("unknown status value", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPut, "/api/leads/lead-1", `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("Delete", mock.Anything, "lead-1").Return(nil)

		w := f.do(t, http.MethodDelete, "/api/leads/lead-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	})
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	f.leads.On("Stats", mock.Anything).Return(lead.Stats{
		TotalLeads: 3, NewLeads: 2, ConvertedLeads: 1,
		ByStatus: map[string]int{"new": 2, "converted": 1},
		BySource: map[string]int{"ads": 3},
	}, nil)

	w := f.do(t, http.MethodGet, "/api/dashboard/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["totalLeads"])
	assert.Equal(t, map[string]any{"ads": float64(3)}, body["leadsBySource"])
	assert.Equal(t, []any{}, body["recentLeads"])
}

func TestWebhooksCRUD(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	dest := webhook.Destination{
		ID: "dest-1", Name: "CRM", URL: "https://crm.example.com/hook", IsActive: true,
		SuccessCount: 4, FailureCount: 1, LastTriggeredAt: &now, CreatedAt: now, UpdatedAt: now,
		CustomFields: []webhook.CustomField{{Name: "campaign", Type: webhook.Text, DefaultValue: "spring"}},
	}

	t.Run("create", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Create", mock.Anything, mock.MatchedBy(func(in webhook.CreateInput) bool {
			return in.Name == "CRM" && len(in.CustomFields) == 1 && in.CustomFields[0].Type == webhook.Number
		})).Return(dest, nil)

		w := f.do(t, http.MethodPost, "/api/webhooks",
			`{"name":"CRM","url":"https://crm.example.com/hook","customFields":[{"name":"score","type":"number","defaultValue":"1"}]}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		wh := decodeBody(t, w)["webhook"].(map[string]any)
		assert.Equal(t, "dest-1", wh["id"])
		assert.Equal(t, true, wh["isActive"])
		assert.Equal(t, float64(4), wh["successCount"])
		assert.Equal(t, "2024-07-01T12:00:00.000Z", wh["lastTriggered"])
		assert.Equal(t, []any{}, wh["sendFields"])
	})

	t.Run("create rejects an invalid url", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/webhooks", `{"name":"CRM","url":"not-a-url"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.webhooks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create rejects an unknown field type", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/webhooks",
			`{"name":"CRM","url":"https://a.example.com","customFields":[{"name":"d","type":"date"}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service validation maps to 400", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Create", mock.Anything, mock.Anything).
			Return(webhook.Destination{}, webhook.ErrInvalidInput)

		w := f.do(t, http.MethodPost, "/api/webhooks", `{"name":"CRM","url":"ftp://files.example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("List", mock.Anything).Return([]webhook.Destination{dest}, nil)

		w := f.do(t, http.MethodGet, "/api/webhooks", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["webhooks"], 1)
	})

	t.Run("deactivate", func(t *testing.T) {
		f := newFixture(t)
		inactive := dest
		inactive.IsActive = false
		f.webhooks.On("Update", mock.Anything, "dest-1", mock.MatchedBy(func(c webhook.Changes) bool {
			return c.IsActive != nil && !*c.IsActive && c.Name == nil && c.URL == nil
		})).Return(inactive, nil)

		w := f.do(t, http.MethodPut, "/api/webhooks/dest-1", `{"isActive":false}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["webhook"].(map[string]any)["isActive"])
	})

	t.Run("delete unknown", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Delete", mock.Anything, "nope").Return(webhook.ErrNotFound)

		w := f.do(t, http.MethodDelete, "/api/webhooks/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTestWebhook(t *testing.T) {
	t.Run("dispatches a synthetic lead to the destination", func(t *testing.T) {
		f := newFixture(t)
		dest := webhook.Destination{ID: "dest-1", Name: "CRM", URL: "https://crm.example.com", IsActive: false}
		f.webhooks.On("Get", mock.Anything, "dest-1").Return(dest, nil)

		w := f.do(t, http.MethodPost, "/api/webhooks/dest-1/test", "")

		require.Equal(t, http.StatusAccepted, w.Code)
		body := decodeBody(t, w)
		leadID := body["leadId"].(string)
		assert.True(t, strings.HasPrefix(leadID, "test_"))

		require.Len(t, f.tester.calls, 1)
		call := f.tester.calls[0]
		assert.Equal(t, "dest-1", call.dest.ID)
		assert.Equal(t, leadID, call.ev.LeadID)
		id, ok := call.ev.Attributes.Get(lead.FieldLeadID)
		require.True(t, ok)
		assert.Equal(t, leadID, id)
	})

	t.Run("unknown destination", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Get", mock.Anything, "nope").Return(webhook.Destination{}, webhook.ErrNotFound)

		w := f.do(t, http.MethodPost, "/api/webhooks/nope/test", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, f.tester.calls)
	})
}

func TestGetWebhookLogs(t *testing.T) {
	created := time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC)
	next := created.Add(2 * time.Second)
	code := 503

	t.Run("rows with optional fields", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Logs", mock.Anything, webhook.LogQuery{DestinationID: "dest-1", Limit: 20}).
			Return([]webhook.DeliveryLog{{
				ID: "log-1", DestinationID: "dest-1", LeadID: "lead-1", URL: "https://crm.example.com",
				Status: webhook.Retrying, HTTPStatus: &code, ErrorMessage: "HTTP 503: unavailable",
				Attempt: 1, MaxAttempts: 3, CreatedAt: created, NextRetryAt: &next,
			}}, nil)

		w := f.do(t, http.MethodGet, "/api/webhooks/logs?limit=20&destination_id=dest-1", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		logs := decodeBody(t, w)["logs"].([]any)
		require.Len(t, logs, 1)
		row := logs[0].(map[string]any)
		assert.Equal(t, "dest-1", row["webhookId"])
		assert.Equal(t, "retrying", row["status"])
		assert.Equal(t, float64(503), row["httpStatus"])
		assert.Equal(t, "2024-07-02T08:00:02.000Z", row["nextRetry"])
		assert.NotContains(t, row, "response")
	})

	t.Run("default limit is left to the service", func(t *testing.T) {
		f := newFixture(t)
		f.webhooks.On("Logs", mock.Anything, webhook.LogQuery{}).Return([]webhook.DeliveryLog{}, nil)

		w := f.do(t, http.MethodGet, "/api/webhooks/logs", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"logs":[]}`, w.Body.String())
	})

	t.Run("invalid limit", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/api/webhooks/logs?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
