package lead

import (
	"context"
	"fmt"
	"sort"
	"time"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	recentLeads  = 5
)

type UseCase interface {
	Create(ctx context.Context, in CreateInput) (Lead, error)
	Get(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, filter Filter) (Page, error)
	Update(ctx context.Context, id string, changes Changes) (Lead, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// CreateInput carries the intake form fields
type CreateInput struct {
	Phone   string
	Source  string
	Name    string
	Email   string
	Company string
	Message string
	Tags    []string
	Extra   map[string]any
}

// Changes is a partial update; nil fields are left untouched
type Changes struct {
	Phone    *string
	Name     *string
	Email    *string
	Company  *string
	Message  *string
	Status   *Status
	Priority *Priority
	Tags     []string
}

// Page is one page of a filtered listing
type Page struct {
	Leads []Lead
	Total int
	Page  int
	Limit int
}

// Stats summarizes the lead base for the dashboard
type Stats struct {
	TotalLeads     int
	NewLeads       int
	ConvertedLeads int
	ByStatus       map[string]int
	BySource       map[string]int
	Recent         []Lead
}

type Service struct {
	Repo     Repository
	Notifier Notifier
	Now      func() time.Time
}

// NewService creates a lead service. notifier may be nil.
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{
		Repo:     repo,
		Notifier: notifier,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Create stores a new lead and hands its event to the notifier without waiting
func (s *Service) Create(ctx context.Context, in CreateInput) (Lead, error) {
	now := s.Now()
	l := Lead{
		Phone:     in.Phone,
		Source:    in.Source,
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Message:   in.Message,
		Status:    New,
		Priority:  Medium,
		Tags:      in.Tags,
		Extra:     AttributesFromMap(in.Extra),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	if err := l.Validate(); err != nil {
		return Lead{}, fmt.Errorf("validating lead: %w", err)
	}
	id, err := s.Repo.Insert(ctx, l)
	if err != nil {
		return Lead{}, fmt.Errorf("inserting lead: %w", err)
	}
	l.ID = id
	if s.Notifier != nil {
		s.Notifier.Dispatch(l.Event())
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	l, err := s.Repo.Select(ctx, id)
	if err != nil {
		return Lead{}, fmt.Errorf("selecting lead: %w", err)
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, filter Filter) (Page, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	leads, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("listing leads: %w", err)
	}
	return Page{
		Leads: leads,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *Service) Update(ctx context.Context, id string, changes Changes) (Lead, error) {
	l, err := s.Repo.Select(ctx, id)
	if err != nil {
		return Lead{}, fmt.Errorf("selecting lead: %w", err)
	}
	applyChanges(&l, changes)
	l.UpdatedAt = s.Now()
	if err := l.Validate(); err != nil {
		return Lead{}, fmt.Errorf("validating lead: %w", err)
	}
	if err := s.Repo.Update(ctx, l); err != nil {
		return Lead{}, fmt.Errorf("updating lead: %w", err)
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return nil
}

// Stats aggregates counters over every stored lead
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, _, err := s.Repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, fmt.Errorf("listing leads: %w", err)
	}
	st := Stats{
		TotalLeads: len(all),
		ByStatus:   make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, l := range all {
		switch l.Status {
		case New:
			st.NewLeads++
		case Converted:
			st.ConvertedLeads++
		}
		st.ByStatus[l.Status.String()]++
		st.BySource[l.Source]++
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > recentLeads {
		all = all[:recentLeads]
	}
	st.Recent = all
	return st, nil
}

func applyChanges(l *Lead, c Changes) {
	if c.Phone != nil {
		l.Phone = *c.Phone
	}
	if c.Name != nil {
		l.Name = *c.Name
	}
	if c.Email != nil {
		l.Email = *c.Email
	}
	if c.Company != nil {
		l.Company = *c.Company
	}
	if c.Message != nil {
		l.Message = *c.Message
	}
	if c.Status != nil {
		l.Status = *c.Status
	}
	if c.Priority != nil {
		l.Priority = *c.Priority
	}
	if c.Tags != nil {
		l.Tags = c.Tags
	}
}
