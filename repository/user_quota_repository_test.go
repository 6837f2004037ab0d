package repository

import (
	"context"
	"testing"
	"time"

	"lineswipe/models"
	"lineswipe/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserQuotaRepository_Get(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserQuotaRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown user returns nil", func(t *testing.T) {
		quota, err := repo.Get(ctx, 100)
		require.NoError(t, err)
		assert.Nil(t, quota)
	})

	t.Run("round trips the row", func(t *testing.T) {
		created := testutil.CreateTestQuota(100, models.QuotaTierPlus)
		created.SwipesUsed = 7
		require.NoError(t, repo.Create(ctx, created))

		quota, err := repo.Get(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, models.QuotaTierPlus, quota.Tier)
		assert.Equal(t, 7, quota.SwipesUsed)
		assert.True(t, created.ResetAt.Equal(quota.ResetAt))
	})

	t.Run("locked read sees the same row", func(t *testing.T) {
		quota, err := repo.GetForUpdate(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, models.QuotaTierPlus, quota.Tier)
	})
}

func TestUserQuotaRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserQuotaRepository(testDB.DB)
	ctx := context.Background()

	t.Run("losing insert is absorbed", func(t *testing.T) {
		first := testutil.CreateTestQuota(100, models.QuotaTierFree)
		first.SwipesUsed = 5
		require.NoError(t, repo.Create(ctx, first))

		// A concurrent first swipe would try the same insert; the existing
		// row must win untouched
		second := testutil.CreateTestQuota(100, models.QuotaTierPro)
		require.NoError(t, repo.Create(ctx, second))

		quota, err := repo.Get(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, models.QuotaTierFree, quota.Tier)
		assert.Equal(t, 5, quota.SwipesUsed)
	})

	t.Run("negative consumption is rejected", func(t *testing.T) {
		quota := testutil.CreateTestQuota(200, models.QuotaTierFree)
		quota.SwipesUsed = -1

		err := repo.Create(ctx, quota)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "check") // PostgreSQL check constraint error
	})
}

func TestUserQuotaRepository_Update(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserQuotaRepository(testDB.DB)
	ctx := context.Background()

	t.Run("persists consumption and period", func(t *testing.T) {
		quota := testutil.CreateTestQuota(100, models.QuotaTierFree)
		require.NoError(t, repo.Create(ctx, quota))

		newReset := time.Now().UTC().Add(models.QuotaPeriod).Truncate(time.Second)
		quota.SwipesUsed = 12
		quota.Tier = models.QuotaTierPro
		quota.ResetAt = newReset
		require.NoError(t, repo.Update(ctx, quota))

		stored, err := repo.Get(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 12, stored.SwipesUsed)
		assert.Equal(t, models.QuotaTierPro, stored.Tier)
		assert.True(t, newReset.Equal(stored.ResetAt))
	})

	t.Run("unknown user errors", func(t *testing.T) {
		ghost := testutil.CreateTestQuota(999, models.QuotaTierFree)

		err := repo.Update(ctx, ghost)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("unknown tier is rejected", func(t *testing.T) {
		quota := testutil.CreateTestQuota(300, models.QuotaTierFree)
		require.NoError(t, repo.Create(ctx, quota))

		quota.Tier = "PLATINUM"
		err := repo.Update(ctx, quota)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "check") // PostgreSQL check constraint error
	})
}
