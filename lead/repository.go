package lead

import (
	"context"
	"strings"
)

/* Small interfaces, written for the users of the API
 * Implementations generate the lead ID on Insert
 */

type Reader interface {
	Select(ctx context.Context, id string) (Lead, error)
	// List returns the page selected by filter and the total number of matches.
	// A zero Limit returns every match.
	List(ctx context.Context, filter Filter) ([]Lead, int, error)
}

type Writer interface {
	Insert(ctx context.Context, l Lead) (string, error)
	Update(ctx context.Context, l Lead) error
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

// Filter narrows a lead listing. Empty fields do not filter.
type Filter struct {
	Status   string
	Priority string
	Source   string
	Search   string // case-insensitive substring over name, phone, company and message
	Page     int
	Limit    int
}

// Offset returns the number of rows to skip for the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Matches reports whether l passes the filter's status, priority, source and search terms
func (f Filter) Matches(l Lead) bool {
	if f.Status != "" && l.Status.String() != f.Status {
		return false
	}
	if f.Priority != "" && l.Priority.String() != f.Priority {
		return false
	}
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	for _, v := range []string{l.Name, l.Phone, l.Company, l.Message} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
