package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/leadhub/webhook"
)

/*
PostgreSQL implementation of webhook.Repository
Counters are bumped with single UPDATE statements so concurrent chains never lose increments.
Delivery logs have no foreign key: rows outlive the destination they describe.
*/

const Schema = `
CREATE TABLE IF NOT EXISTS webhook_destinations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	send_fields TEXT[],
	custom_fields JSONB NOT NULL DEFAULT '[]',
	success_count BIGINT NOT NULL DEFAULT 0,
	failure_count BIGINT NOT NULL DEFAULT 0,
	last_triggered_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS webhook_logs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	destination_id TEXT NOT NULL,
	lead_id TEXT NOT NULL,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	http_status INTEGER,
	response_excerpt TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	attempt INTEGER NOT NULL,
	max_attempts INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	next_retry_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS webhook_logs_created_at_idx ON webhook_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS webhook_logs_destination_idx ON webhook_logs (destination_id, created_at DESC);
`

const destinationColumns = "id, name, url, is_active, send_fields, custom_fields, success_count, failure_count, last_triggered_at, created_at, updated_at"

const logColumns = "id, destination_id, lead_id, url, status, http_status, response_excerpt, error_message, attempt, max_attempts, created_at, next_retry_at"

type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Migrate creates the destination and log tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating webhook tables: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// customField is the JSONB element shape of custom_fields
type customField struct {
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	Type         string `json:"type"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

func scanDestination(row rowScanner) (webhook.Destination, error) {
	var (
		d             webhook.Destination
		sendFields    pq.StringArray
		customFields  []byte
		lastTriggered sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Name, &d.URL, &d.IsActive, &sendFields, &customFields,
		&d.SuccessCount, &d.FailureCount, &lastTriggered, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return webhook.Destination{}, err
	}
	if sendFields != nil {
		d.SendFields = []string(sendFields)
	}
	if lastTriggered.Valid {
		at := lastTriggered.Time
		d.LastTriggeredAt = &at
	}
	if len(customFields) > 0 {
		var fields []customField
		if err := json.Unmarshal(customFields, &fields); err != nil {
			return webhook.Destination{}, fmt.Errorf("unmarshaling custom fields: %w", err)
		}
		for _, f := range fields {
			d.CustomFields = append(d.CustomFields, webhook.CustomField{
				Name:         f.Name,
				Label:        f.Label,
				Type:         webhook.NewFieldType(f.Type),
				Required:     f.Required,
				DefaultValue: f.DefaultValue,
			})
		}
	}
	return d, nil
}

func marshalCustomFields(fields []webhook.CustomField) ([]byte, error) {
	out := make([]customField, 0, len(fields))
	for _, f := range fields {
		out = append(out, customField{
			Name:         f.Name,
			Label:        f.Label,
			Type:         f.Type.String(),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling custom fields: %w", err)
	}
	return data, nil
}

func (r *Repository) Get(ctx context.Context, id string) (webhook.Destination, error) {
	query := "SELECT " + destinationColumns + " FROM webhook_destinations WHERE id = $1"

	d, err := scanDestination(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Destination{}, fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	if err != nil {
		return webhook.Destination{}, fmt.Errorf("selecting destination: %w", err)
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context) ([]webhook.Destination, error) {
	return r.selectDestinations(ctx, "SELECT "+destinationColumns+" FROM webhook_destinations ORDER BY created_at DESC")
}

func (r *Repository) ListActive(ctx context.Context) ([]webhook.Destination, error) {
	return r.selectDestinations(ctx, "SELECT "+destinationColumns+" FROM webhook_destinations WHERE is_active = TRUE ORDER BY created_at DESC")
}

func (r *Repository) selectDestinations(ctx context.Context, query string) ([]webhook.Destination, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("selecting destinations: %w", err)
	}
	defer rows.Close()

	out := []webhook.Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destinations: %w", err)
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, d webhook.Destination) (webhook.Destination, error) {
	query := `INSERT INTO webhook_destinations (name, url, is_active, send_fields, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	customFields, err := marshalCustomFields(d.CustomFields)
	if err != nil {
		return webhook.Destination{}, err
	}

	err = r.DB.QueryRowContext(ctx, query,
		d.Name, d.URL, d.IsActive, pq.Array(d.SendFields), customFields,
		d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	).Scan(&d.ID)
	if err != nil {
		return webhook.Destination{}, fmt.Errorf("inserting destination: %w", err)
	}
	d.SuccessCount = 0
	d.FailureCount = 0
	d.LastTriggeredAt = nil
	return d, nil
}

func (r *Repository) Update(ctx context.Context, d webhook.Destination) error {
	query := `UPDATE webhook_destinations
		SET name = $1, url = $2, is_active = $3, send_fields = $4, custom_fields = $5, updated_at = $6
		WHERE id = $7`

	customFields, err := marshalCustomFields(d.CustomFields)
	if err != nil {
		return err
	}

	result, err := r.DB.ExecContext(ctx, query,
		d.Name, d.URL, d.IsActive, pq.Array(d.SendFields), customFields, d.UpdatedAt.UTC(), d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating destination: %w", err)
	}
	return expectOneRow(result, d.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM webhook_destinations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	return expectOneRow(result, id)
}

// IncrementSuccess affects no rows when the destination was deleted mid-flight
func (r *Repository) IncrementSuccess(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE webhook_destinations
		SET success_count = success_count + 1, last_triggered_at = $1
		WHERE id = $2`

	if _, err := r.DB.ExecContext(ctx, query, at.UTC(), id); err != nil {
		return fmt.Errorf("incrementing success count: %w", err)
	}
	return nil
}

func (r *Repository) IncrementFailure(ctx context.Context, id string) error {
	query := `UPDATE webhook_destinations
		SET failure_count = failure_count + 1
		WHERE id = $1`

	if _, err := r.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("incrementing failure count: %w", err)
	}
	return nil
}

func (r *Repository) Append(ctx context.Context, log webhook.DeliveryLog) (string, error) {
	query := `INSERT INTO webhook_logs (destination_id, lead_id, url, status, http_status, response_excerpt, error_message, attempt, max_attempts, created_at, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var (
		httpStatus  sql.NullInt64
		nextRetryAt sql.NullTime
	)
	if log.HTTPStatus != nil {
		httpStatus = sql.NullInt64{Int64: int64(*log.HTTPStatus), Valid: true}
	}
	if log.NextRetryAt != nil {
		nextRetryAt = sql.NullTime{Time: log.NextRetryAt.UTC(), Valid: true}
	}

	var id string
	err := r.DB.QueryRowContext(ctx, query,
		log.DestinationID, log.LeadID, log.URL, log.Status.String(), httpStatus,
		log.ResponseExcerpt, log.ErrorMessage, log.Attempt, log.MaxAttempts,
		log.CreatedAt.UTC(), nextRetryAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting delivery log: %w", err)
	}
	return id, nil
}

func (r *Repository) ListRecent(ctx context.Context, q webhook.LogQuery) ([]webhook.DeliveryLog, error) {
	var args []any
	query := "SELECT " + logColumns + " FROM webhook_logs"
	if q.DestinationID != "" {
		args = append(args, q.DestinationID)
		query += " WHERE destination_id = $1"
	}
	query += " ORDER BY created_at DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting delivery logs: %w", err)
	}
	defer rows.Close()

	out := []webhook.DeliveryLog{}
	for rows.Next() {
		var (
			l           webhook.DeliveryLog
			status      string
			httpStatus  sql.NullInt64
			nextRetryAt sql.NullTime
		)
		err := rows.Scan(&l.ID, &l.DestinationID, &l.LeadID, &l.URL, &status, &httpStatus,
			&l.ResponseExcerpt, &l.ErrorMessage, &l.Attempt, &l.MaxAttempts, &l.CreatedAt, &nextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scanning delivery log: %w", err)
		}
		l.Status = webhook.NewStatus(status)
		if httpStatus.Valid {
			code := int(httpStatus.Int64)
			l.HTTPStatus = &code
		}
		if nextRetryAt.Valid {
			at := nextRetryAt.Time
			l.NextRetryAt = &at
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery logs: %w", err)
	}
	return out, nil
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
		return fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	return nil
}

var _ webhook.Repository = (*Repository)(nil)
