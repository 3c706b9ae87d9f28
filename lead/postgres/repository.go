package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/marcelsud/leadhub/lead"
)

/*
PostgreSQL implementation of lead.Repository
IDs are generated by the database (gen_random_uuid) and returned on insert.
Tags are stored as TEXT[] and extra intake fields as JSONB.
*/

const Schema = `
CREATE TABLE IF NOT EXISTS leads (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	phone TEXT NOT NULL,
	source TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	priority TEXT NOT NULL DEFAULT 'medium',
	tags TEXT[] NOT NULL DEFAULT '{}',
	extra JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at DESC);
`

const selectColumns = "id, phone, source, name, email, company, message, status, priority, tags, extra, created_at, updated_at"

type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Migrate creates the leads table if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating leads table: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (lead.Lead, error) {
	var (
		l                lead.Lead
		status, priority string
		tags             pq.StringArray
		extra            []byte
	)
	err := row.Scan(&l.ID, &l.Phone, &l.Source, &l.Name, &l.Email, &l.Company, &l.Message,
		&status, &priority, &tags, &extra, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return lead.Lead{}, err
	}
	l.Status = lead.NewStatus(status)
	l.Priority = lead.NewPriority(priority)
	l.Tags = []string(tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &l.Extra); err != nil {
			return lead.Lead{}, fmt.Errorf("unmarshaling extra: %w", err)
		}
	}
	return l, nil
}

func (r *Repository) Select(ctx context.Context, id string) (lead.Lead, error) {
	query := "SELECT " + selectColumns + " FROM leads WHERE id = $1"

	l, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return lead.Lead{}, fmt.Errorf("%w: %s", lead.ErrNotFound, id)
	}
	if err != nil {
		return lead.Lead{}, fmt.Errorf("selecting lead: %w", err)
	}
	return l, nil
}

// List applies the filter in SQL and returns matches newest first
func (r *Repository) List(ctx context.Context, filter lead.Filter) ([]lead.Lead, int, error) {
	where, args := whereClause(filter)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting leads: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM leads" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("selecting leads: %w", err)
	}
	defer rows.Close()

	leads := []lead.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating leads: %w", err)
	}
	return leads, total, nil
}

func whereClause(filter lead.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority)
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR company ILIKE $%d OR message ILIKE $%d)", n, n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) Insert(ctx context.Context, l lead.Lead) (string, error) {
	query := `INSERT INTO leads (phone, source, name, email, company, message, status, priority, tags, extra, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	extra, err := marshalExtra(l.Extra)
	if err != nil {
		return "", err
	}

	var id string
	err = r.DB.QueryRowContext(ctx, query,
		l.Phone, l.Source, l.Name, l.Email, l.Company, l.Message,
		l.Status.String(), l.Priority.String(), pq.Array(l.Tags), extra,
		l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting lead: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, l lead.Lead) error {
	query := `UPDATE leads
		SET phone = $1, name = $2, email = $3, company = $4, message = $5, status = $6, priority = $7, tags = $8, updated_at = $9
		WHERE id = $10`

	result, err := r.DB.ExecContext(ctx, query,
		l.Phone, l.Name, l.Email, l.Company, l.Message,
		l.Status.String(), l.Priority.String(), pq.Array(l.Tags), l.UpdatedAt.UTC(), l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lead: %w", err)
	}
	return expectOneRow(result, l.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM leads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return expectOneRow(result, id)
}

func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", lead.ErrNotFound, id)
	}
	return nil
}

func marshalExtra(extra lead.Attributes) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshaling extra: %w", err)
	}
	return data, nil
}

var _ lead.Repository = (*Repository)(nil)
