package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelsud/leadhub/delivery"
	"github.com/marcelsud/leadhub/metrics"
	"github.com/marcelsud/leadhub/webhook"
	"github.com/marcelsud/leadhub/webhook/memory"
	"github.com/marcelsud/leadhub/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats delivery.Stats

func (f fixedStats) Stats() delivery.Stats { return delivery.Stats(f) }

func seedRepository(t *testing.T) (*memory.Repository, string) {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()

	d, err := repo.Create(ctx, webhook.Destination{Name: "CRM", URL: "https://crm.example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, webhook.Destination{Name: "Off", URL: "https://off.example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.IncrementSuccess(ctx, d.ID, time.Now()))
	require.NoError(t, repo.IncrementFailure(ctx, d.ID))
	require.NoError(t, repo.IncrementFailure(ctx, d.ID))

	next := time.Now().Add(2 * time.Second)
	rows := []webhook.DeliveryLog{
		{DestinationID: d.ID, LeadID: "l1", Status: webhook.Retrying, Attempt: 1, MaxAttempts: 3, NextRetryAt: &next},
		{DestinationID: d.ID, LeadID: "l1", Status: webhook.Success, Attempt: 2, MaxAttempts: 3},
		{DestinationID: d.ID, LeadID: "l2", Status: webhook.Failed, Attempt: 1, MaxAttempts: 1},
	}
	for _, row := range rows {
		_, err := repo.Append(ctx, row)
		require.NoError(t, err)
	}
	return repo, d.ID
}

func TestStoreCollector_Collect(t *testing.T) {
	ctx := context.Background()

	t.Run("success - aggregates stores and dispatcher", func(t *testing.T) {
		repo, id := seedRepository(t)
		c := metrics.NewStoreCollector(repo, repo, fixedStats{InFlight: 2, PendingRetries: 1})

		m, err := c.Collect(ctx)

		require.NoError(t, err)
		require.Len(t, m.Deliveries, 2)
		assert.Equal(t, metrics.DeliveryCounts{Success: 1, Failure: 2}, m.Deliveries[id])
		assert.Equal(t, int64(1), m.StatusCounts["success"])
		assert.Equal(t, int64(1), m.StatusCounts["retrying"])
		assert.Equal(t, int64(1), m.StatusCounts["failed"])
		assert.Equal(t, delivery.Stats{InFlight: 2, PendingRetries: 1}, m.Dispatcher)
		assert.False(t, m.Timestamp.IsZero())
	})

	t.Run("statuses are reported even without rows", func(t *testing.T) {
		repo := memory.NewRepository()
		c := metrics.NewStoreCollector(repo, repo, nil)

		counts, err := c.GetStatusCounts(ctx)

		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"success": 0, "retrying": 0, "failed": 0}, counts)
	})

	t.Run("nil dispatcher reports zero stats", func(t *testing.T) {
		repo := memory.NewRepository()
		stats, err := metrics.NewStoreCollector(repo, repo, nil).GetDispatcherStats(ctx)

		require.NoError(t, err)
		assert.Zero(t, stats)
	})

	t.Run("error - store failure", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("List", ctx).Return(nil, errors.New("redis down"))

		_, err := metrics.NewStoreCollector(repo, repo, nil).Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting delivery counts")
	})
}
