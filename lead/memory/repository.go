package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/marcelsud/leadhub/lead"
)

// Repository keeps leads in process memory. Used by the default "memory"
// storage driver and by tests.
type Repository struct {
	mu    sync.RWMutex
	leads map[string]lead.Lead
}

func NewRepository() *Repository {
	return &Repository{
		leads: make(map[string]lead.Lead),
	}
}

func (r *Repository) Select(ctx context.Context, id string) (lead.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return lead.Lead{}, fmt.Errorf("%w: %s", lead.ErrNotFound, id)
	}
	return l, nil
}

// List returns matches newest first
func (r *Repository) List(ctx context.Context, filter lead.Filter) ([]lead.Lead, int, error) {
	r.mu.RLock()
	matched := make([]lead.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		if filter.Matches(l) {
			matched = append(matched, l)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if filter.Limit <= 0 {
		return matched, total, nil
	}
	start := filter.Offset()
	if start >= total {
		return []lead.Lead{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *Repository) Insert(ctx context.Context, l lead.Lead) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.NewString()
	r.leads[l.ID] = l
	return l.ID, nil
}

func (r *Repository) Update(ctx context.Context, l lead.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[l.ID]; !ok {
		return fmt.Errorf("%w: %s", lead.ErrNotFound, l.ID)
	}
	r.leads[l.ID] = l
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return fmt.Errorf("%w: %s", lead.ErrNotFound, id)
	}
	delete(r.leads, id)
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}
