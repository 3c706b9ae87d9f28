package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultLogLimit is the number of rows returned when a query sets no limit
const DefaultLogLimit = 100

/* Service holds the destination configuration use cases
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operator-facing operations on destinations and their logs
type UseCase interface {
	Create(ctx context.Context, in CreateInput) (Destination, error)
	Get(ctx context.Context, id string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
	Update(ctx context.Context, id string, changes Changes) (Destination, error)
	Delete(ctx context.Context, id string) error
	Logs(ctx context.Context, q LogQuery) ([]DeliveryLog, error)
}

// CreateInput carries the fields of a new destination
type CreateInput struct {
	Name         string
	URL          string
	SendFields   []string
	CustomFields []CustomField
}

// Changes is a partial update; nil fields are left untouched
type Changes struct {
	Name         *string
	URL          *string
	IsActive     *bool
	SendFields   []string // non-nil replaces, empty slice resets to the default field set
	CustomFields []CustomField
}

type Service struct {
	Repo     Repository
	LogLimit int // rows returned by Logs when the query sets no limit
	Now      func() time.Time
}

// NewService creates a new destination service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo:     repo,
		LogLimit: DefaultLogLimit,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Create validates and stores a new, active destination
func (s *Service) Create(ctx context.Context, in CreateInput) (Destination, error) {
	now := s.Now()
	d := Destination{
		Name:         strings.TrimSpace(in.Name),
		URL:          strings.TrimSpace(in.URL),
		IsActive:     true,
		SendFields:   normalizeFields(in.SendFields),
		CustomFields: in.CustomFields,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("validating destination: %w", err)
	}

	created, err := s.Repo.Create(ctx, d)
	if err != nil {
		return Destination{}, fmt.Errorf("storing destination: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Destination, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Destination{}, fmt.Errorf("getting destination: %w", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]Destination, error) {
	all, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	return all, nil
}

// Update applies a partial configuration change, re-validating the url
func (s *Service) Update(ctx context.Context, id string, changes Changes) (Destination, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Destination{}, fmt.Errorf("getting destination: %w", err)
	}
	if changes.Name != nil {
		d.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.URL != nil {
		d.URL = strings.TrimSpace(*changes.URL)
	}
	if changes.IsActive != nil {
		d.IsActive = *changes.IsActive
	}
	if changes.SendFields != nil {
		d.SendFields = normalizeFields(changes.SendFields)
	}
	if changes.CustomFields != nil {
		d.CustomFields = changes.CustomFields
	}
	d.UpdatedAt = s.Now()

	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("validating destination: %w", err)
	}
	if err := s.Repo.Update(ctx, d); err != nil {
		return Destination{}, fmt.Errorf("updating destination: %w", err)
	}
	return d, nil
}

// Delete removes a destination. Its delivery logs are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	return nil
}

// Logs returns the most recent delivery attempts
func (s *Service) Logs(ctx context.Context, q LogQuery) ([]DeliveryLog, error) {
	if q.Limit <= 0 {
		q.Limit = s.LogLimit
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLogLimit
	}
	logs, err := s.Repo.ListRecent(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing delivery logs: %w", err)
	}
	return logs, nil
}

// normalizeFields trims names and drops duplicates, keeping the first occurrence
func normalizeFields(fields []string) []string {
	if fields == nil {
		return nil
	}
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
