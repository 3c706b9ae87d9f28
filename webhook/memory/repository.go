package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/leadhub/webhook"
)

/* In-process implementation of webhook.Repository
 * Used by tests and single-node deployments without a database
 */
type Repository struct {
	mu           sync.RWMutex
	destinations map[string]webhook.Destination
	logs         []webhook.DeliveryLog // append order, oldest first
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{
		destinations: make(map[string]webhook.Destination),
	}
}

func (r *Repository) Get(ctx context.Context, id string) (webhook.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.destinations[id]
	if !ok {
		return webhook.Destination{}, fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	return copyDestination(d), nil
}

func (r *Repository) List(ctx context.Context) ([]webhook.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(webhook.Destination) bool { return true }), nil
}

func (r *Repository) ListActive(ctx context.Context) ([]webhook.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(d webhook.Destination) bool { return d.IsActive }), nil
}

func (r *Repository) Create(ctx context.Context, d webhook.Destination) (webhook.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d.ID = uuid.NewString()
	d.SuccessCount = 0
	d.FailureCount = 0
	d.LastTriggeredAt = nil
	r.destinations[d.ID] = copyDestination(d)
	return d, nil
}

func (r *Repository) Update(ctx context.Context, d webhook.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.destinations[d.ID]
	if !ok {
		return fmt.Errorf("%w: destination %s", webhook.ErrNotFound, d.ID)
	}
	current.Name = d.Name
	current.URL = d.URL
	current.IsActive = d.IsActive
	current.SendFields = d.SendFields
	current.CustomFields = d.CustomFields
	current.UpdatedAt = d.UpdatedAt
	r.destinations[d.ID] = copyDestination(current)
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.destinations[id]; !ok {
		return fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	delete(r.destinations, id)
	return nil
}

// IncrementSuccess is a no-op for destinations deleted mid-flight
func (r *Repository) IncrementSuccess(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.destinations[id]
	if !ok {
		return nil
	}
	d.SuccessCount++
	d.LastTriggeredAt = &at
	r.destinations[id] = d
	return nil
}

func (r *Repository) IncrementFailure(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.destinations[id]
	if !ok {
		return nil
	}
	d.FailureCount++
	r.destinations[id] = d
	return nil
}

func (r *Repository) Append(ctx context.Context, log webhook.DeliveryLog) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = uuid.NewString()
	r.logs = append(r.logs, log)
	return log.ID, nil
}

func (r *Repository) ListRecent(ctx context.Context, q webhook.LogQuery) ([]webhook.DeliveryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]webhook.DeliveryLog, 0)
	for i := len(r.logs) - 1; i >= 0; i-- {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		l := r.logs[i]
		if q.DestinationID != "" && l.DestinationID != q.DestinationID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}

// sorted returns the matching destinations newest first; caller holds the lock
func (r *Repository) sorted(keep func(webhook.Destination) bool) []webhook.Destination {
	out := make([]webhook.Destination, 0, len(r.destinations))
	for _, d := range r.destinations {
		if keep(d) {
			out = append(out, copyDestination(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func copyDestination(d webhook.Destination) webhook.Destination {
	if d.SendFields != nil {
		d.SendFields = append([]string(nil), d.SendFields...)
	}
	if d.CustomFields != nil {
		d.CustomFields = append([]webhook.CustomField(nil), d.CustomFields...)
	}
	if d.LastTriggeredAt != nil {
		at := *d.LastTriggeredAt
		d.LastTriggeredAt = &at
	}
	return d
}

var _ webhook.Repository = (*Repository)(nil)
