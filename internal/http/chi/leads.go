package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/leadhub/lead"
)

/*
 * Lead DTOs: the web representation of a lead, hence the json tags
 */

type leadRequest struct {
	Phone   string         `json:"phone" validate:"required"`
	Source  string         `json:"source" validate:"required"`
	Name    string         `json:"name"`
	Email   string         `json:"email" validate:"omitempty,email"`
	Company string         `json:"company"`
	Message string         `json:"message"`
	Tags    []string       `json:"tags"`
	Extra   map[string]any `json:"extra"`
}

type updateLeadRequest struct {
	Phone    *string  `json:"phone" validate:"omitempty,min=1"`
	Name     *string  `json:"name"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Company  *string  `json:"company"`
	Message  *string  `json:"message"`
	Status   *string  `json:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Priority *string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags     []string `json:"tags"`
}

type leadResponse struct {
	ID        string          `json:"id"`
	Phone     string          `json:"phone"`
	Source    string          `json:"source"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Company   string          `json:"company,omitempty"`
	Message   string          `json:"message,omitempty"`
	Status    lead.Status     `json:"status"`
	Priority  lead.Priority   `json:"priority"`
	Tags      []string        `json:"tags"`
	Extra     lead.Attributes `json:"extra,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

type leadEnvelope struct {
	Success bool         `json:"success"`
	Lead    leadResponse `json:"lead"`
}

type leadsEnvelope struct {
	Success bool           `json:"success"`
	Leads   []leadResponse `json:"leads"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

type statsResponse struct {
	TotalLeads     int            `json:"totalLeads"`
	NewLeads       int            `json:"newLeads"`
	ConvertedLeads int            `json:"convertedLeads"`
	LeadsByStatus  map[string]int `json:"leadsByStatus"`
	LeadsBySource  map[string]int `json:"leadsBySource"`
	RecentLeads    []leadResponse `json:"recentLeads"`
}

func toLeadResponse(l lead.Lead) leadResponse {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return leadResponse{
		ID:        l.ID,
		Phone:     l.Phone,
		Source:    l.Source,
		Name:      l.Name,
		Email:     l.Email,
		Company:   l.Company,
		Message:   l.Message,
		Status:    l.Status,
		Priority:  l.Priority,
		Tags:      tags,
		Extra:     l.Extra,
		CreatedAt: formatTime(l.CreatedAt),
		UpdatedAt: formatTime(l.UpdatedAt),
	}
}

func toLeadResponses(all []lead.Lead) []leadResponse {
	out := make([]leadResponse, 0, len(all))
	for _, l := range all {
		out = append(out, toLeadResponse(l))
	}
	return out
}

var nowUTC = func() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(lead.TimeLayout)
}

// queryInt parses an optional positive integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadRequest, name)
	}
	return n, nil
}

func getLeads(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := queryInt(r, "page")
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, r, err)
			return
		}
		q := r.URL.Query()
		result, err := leadService.List(r.Context(), lead.Filter{
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
			Source:   q.Get("source"),
			Search:   q.Get("search"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, leadsEnvelope{
			Success: true,
			Leads:   toLeadResponses(result.Leads),
			Total:   result.Total,
			Page:    result.Page,
			Limit:   result.Limit,
		})
	})
}

// postLead responds as soon as the lead is stored; webhook delivery runs in the background
func postLead(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req leadRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		l, err := leadService.Create(r.Context(), lead.CreateInput{
			Phone:   req.Phone,
			Source:  req.Source,
			Name:    req.Name,
			Email:   req.Email,
			Company: req.Company,
			Message: req.Message,
			Tags:    req.Tags,
			Extra:   req.Extra,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, leadEnvelope{Success: true, Lead: toLeadResponse(l)})
	})
}

func getLead(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l, err := leadService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, leadEnvelope{Success: true, Lead: toLeadResponse(l)})
	})
}

func putLead(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req updateLeadRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		changes := lead.Changes{
			Phone:   req.Phone,
			Name:    req.Name,
			Email:   req.Email,
			Company: req.Company,
			Message: req.Message,
			Tags:    req.Tags,
		}
		if req.Status != nil {
			s := lead.NewStatus(*req.Status)
			changes.Status = &s
		}
		if req.Priority != nil {
			p := lead.NewPriority(*req.Priority)
			changes.Priority = &p
		}
		l, err := leadService.Update(r.Context(), chi.URLParam(r, "id"), changes)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, leadEnvelope{Success: true, Lead: toLeadResponse(l)})
	})
}

func deleteLead(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := leadService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
}

func getStats(leadService lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := leadService.Stats(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			TotalLeads:     st.TotalLeads,
			NewLeads:       st.NewLeads,
			ConvertedLeads: st.ConvertedLeads,
			LeadsByStatus:  st.ByStatus,
			LeadsBySource:  st.BySource,
			RecentLeads:    toLeadResponses(st.Recent),
		})
	})
}
