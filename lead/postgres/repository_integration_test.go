//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	internalpg "github.com/marcelsud/leadhub/internal/postgres"
	"github.com/marcelsud/leadhub/lead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()

	pg, cleanup := internalpg.SetupContainer(t, ctx)
	defer cleanup()

	repo := NewRepository(pg.DB)
	require.NoError(t, repo.Migrate(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	id, err := repo.Insert(ctx, lead.Lead{
		Phone:     "+5511900000000",
		Source:    "landing",
		Name:      "Eva",
		Status:    lead.New,
		Priority:  lead.Medium,
		Tags:      []string{"spring"},
		Extra:     lead.Attributes{{Name: "_url", Value: "https://example.com/promo"}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("round trip", func(t *testing.T) {
		l, err := repo.Select(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Eva", l.Name)
		assert.Equal(t, []string{"spring"}, l.Tags)
		assert.True(t, l.Extra.Has("_url"))
		assert.True(t, l.CreatedAt.Equal(now))
	})

	t.Run("search and count", func(t *testing.T) {
		leads, total, err := repo.List(ctx, lead.Filter{Search: "EVA", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, leads, 1)
	})

	t.Run("update then delete", func(t *testing.T) {
		l, err := repo.Select(ctx, id)
		require.NoError(t, err)
		l.Status = lead.Converted
		require.NoError(t, repo.Update(ctx, l))

		got, err := repo.Select(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lead.Converted, got.Status)

		require.NoError(t, repo.Delete(ctx, id))
		_, err = repo.Select(ctx, id)
		assert.ErrorIs(t, err, lead.ErrNotFound)
	})

	internalpg.Truncate(t, ctx, pg.DB, "leads")
}
