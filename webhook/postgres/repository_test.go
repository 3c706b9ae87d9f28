//go:build !integration

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marcelsud/leadhub/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Unit tests for the PostgreSQL webhook repository.
sqlmock checks the SQL we send without a running database.
The integration suite (-tags=integration) runs against a real container.
*/

var destinationRow = []string{"id", "name", "url", "is_active", "send_fields", "custom_fields",
	"success_count", "failure_count", "last_triggered_at", "created_at", "updated_at"}

var logRow = []string{"id", "destination_id", "lead_id", "url", "status", "http_status",
	"response_excerpt", "error_message", "attempt", "max_attempts", "created_at", "next_retry_at"}

func TestRepository_Get_Unit(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("get existing destination", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		rows := sqlmock.NewRows(destinationRow).AddRow(
			"d1", "CRM", "https://crm.example.com", true, "{name,phone}",
			[]byte(`[{"name":"campaign","type":"text","default_value":"spring"}]`),
			int64(4), int64(2), created, created, created,
		)
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT ` + destinationColumns + ` FROM webhook_destinations WHERE id = $1`,
		)).WithArgs("d1").WillReturnRows(rows)

		d, err := repo.Get(context.Background(), "d1")

		require.NoError(t, err)
		assert.Equal(t, "CRM", d.Name)
		assert.Equal(t, []string{"name", "phone"}, d.SendFields)
		require.Len(t, d.CustomFields, 1)
		assert.Equal(t, webhook.Text, d.CustomFields[0].Type)
		assert.Equal(t, "spring", d.CustomFields[0].DefaultValue)
		assert.Equal(t, int64(4), d.SuccessCount)
		assert.Equal(t, int64(2), d.FailureCount)
		require.NotNil(t, d.LastTriggeredAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null send fields mean all fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		rows := sqlmock.NewRows(destinationRow).AddRow(
			"d1", "CRM", "https://crm.example.com", true, nil, []byte(`[]`),
			int64(0), int64(0), nil, created, created,
		)
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT ` + destinationColumns + ` FROM webhook_destinations WHERE id = $1`,
		)).WithArgs("d1").WillReturnRows(rows)

		d, err := repo.Get(context.Background(), "d1")

		require.NoError(t, err)
		assert.Nil(t, d.SendFields)
		assert.Nil(t, d.LastTriggeredAt)
		assert.Empty(t, d.CustomFields)
	})

	t.Run("get unknown destination returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT ` + destinationColumns + ` FROM webhook_destinations WHERE id = $1`,
		)).WithArgs("missing").WillReturnRows(sqlmock.NewRows(destinationRow))

		_, err = repo.Get(context.Background(), "missing")

		require.Error(t, err)
		assert.ErrorIs(t, err, webhook.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListActive_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &Repository{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows(destinationRow).
		AddRow("d2", "B", "https://b.example.com", true, nil, []byte(`[]`), int64(0), int64(0), nil, now, now).
		AddRow("d1", "A", "https://a.example.com", true, nil, []byte(`[]`), int64(0), int64(0), nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT ` + destinationColumns + ` FROM webhook_destinations WHERE is_active = TRUE ORDER BY created_at DESC`,
	)).WillReturnRows(rows)

	active, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "d2", active[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &Repository{DB: db}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO webhook_destinations (name, url, is_active, send_fields, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
	)).WithArgs("CRM", "https://crm.example.com", true, sqlmock.AnyArg(), sqlmock.AnyArg(), now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("generated-id"))

	d, err := repo.Create(context.Background(), webhook.Destination{
		Name:         "CRM",
		URL:          "https://crm.example.com",
		IsActive:     true,
		SendFields:   []string{"name"},
		SuccessCount: 9,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	require.NoError(t, err)
	assert.Equal(t, "generated-id", d.ID)
	assert.Zero(t, d.SuccessCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_Unit(t *testing.T) {
	query := `UPDATE webhook_destinations
		SET name = $1, url = $2, is_active = $3, send_fields = $4, custom_fields = $5, updated_at = $6
		WHERE id = $7`
	now := time.Now().UTC()

	t.Run("update existing destination", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectExec(regexp.QuoteMeta(query)).
			WithArgs("CRM", "https://crm.example.com", false, sqlmock.AnyArg(), sqlmock.AnyArg(), now, "d1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Update(context.Background(), webhook.Destination{
			ID: "d1", Name: "CRM", URL: "https://crm.example.com", IsActive: false, UpdatedAt: now,
		})

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update unknown destination returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectExec(regexp.QuoteMeta(query)).WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Update(context.Background(), webhook.Destination{ID: "missing", UpdatedAt: now})

		assert.ErrorIs(t, err, webhook.ErrNotFound)
	})
}

func TestRepository_Delete_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &Repository{DB: db}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM webhook_destinations WHERE id = $1`)).
		WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "d1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Counters_Unit(t *testing.T) {
	t.Run("increment success sets last triggered in the same statement", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectExec(regexp.QuoteMeta(
			`UPDATE webhook_destinations
		SET success_count = success_count + 1, last_triggered_at = $1
		WHERE id = $2`,
		)).WithArgs(at, "d1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.IncrementSuccess(context.Background(), "d1", at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increment failure on deleted destination is not an error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectExec(regexp.QuoteMeta(
			`UPDATE webhook_destinations
		SET failure_count = failure_count + 1
		WHERE id = $1`,
		)).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.IncrementFailure(context.Background(), "gone"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectExec("UPDATE webhook_destinations").WillReturnError(errors.New("connection reset"))

		err = repo.IncrementFailure(context.Background(), "d1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "incrementing failure count")
	})
}

func TestRepository_Logs_Unit(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("append retrying row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		status := 503
		next := created.Add(2 * time.Second)
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO webhook_logs`)).
			WithArgs("d1", "lead-1", "https://crm.example.com", "retrying", sqlmock.AnyArg(),
				"", "HTTP 503", 2, 3, created, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("log-1"))

		id, err := repo.Append(context.Background(), webhook.DeliveryLog{
			DestinationID: "d1",
			LeadID:        "lead-1",
			URL:           "https://crm.example.com",
			Status:        webhook.Retrying,
			HTTPStatus:    &status,
			ErrorMessage:  "HTTP 503",
			Attempt:       2,
			MaxAttempts:   3,
			CreatedAt:     created,
			NextRetryAt:   &next,
		})

		require.NoError(t, err)
		assert.Equal(t, "log-1", id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list recent filtered by destination", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		rows := sqlmock.NewRows(logRow).
			AddRow("log-2", "d1", "lead-1", "https://crm.example.com", "success", int64(200), "ok", "", 2, 3, created, nil).
			AddRow("log-1", "d1", "lead-1", "https://crm.example.com", "retrying", nil, "", "connection refused", 1, 3, created, created)
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT ` + logColumns + ` FROM webhook_logs WHERE destination_id = $1 ORDER BY created_at DESC LIMIT $2`,
		)).WithArgs("d1", 50).WillReturnRows(rows)

		logs, err := repo.ListRecent(context.Background(), webhook.LogQuery{DestinationID: "d1", Limit: 50})

		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, webhook.Success, logs[0].Status)
		require.NotNil(t, logs[0].HTTPStatus)
		assert.Equal(t, 200, *logs[0].HTTPStatus)
		assert.Nil(t, logs[0].NextRetryAt)
		assert.Nil(t, logs[1].HTTPStatus)
		require.NotNil(t, logs[1].NextRetryAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list recent without filter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &Repository{DB: db}
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT ` + logColumns + ` FROM webhook_logs ORDER BY created_at DESC LIMIT $1`,
		)).WithArgs(100).WillReturnRows(sqlmock.NewRows(logRow))

		logs, err := repo.ListRecent(context.Background(), webhook.LogQuery{Limit: 100})

		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}
