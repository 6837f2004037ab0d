package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"lineswipe/config"
	"lineswipe/events"
	"lineswipe/models"
	"lineswipe/repository"
	"lineswipe/repository/testutil"
	"lineswipe/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwipeWorkflow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	// Tighten the limits so the workflow hits them quickly
	cfg := config.Get()
	originalFreeLimit := cfg.FreeTierLimit
	originalMinSwipes := cfg.InsightMinSwipes
	cfg.FreeTierLimit = 5
	cfg.InsightMinSwipes = 3
	defer func() {
		cfg.FreeTierLimit = originalFreeLimit
		cfg.InsightMinSwipes = originalMinSwipes
	}()

	// Collect events flushed after commits
	eventBus := events.NewBus()
	var mu sync.Mutex
	var recorded []events.Event
	eventBus.Subscribe(events.EventTypeSwipeRecorded, func(_ context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, e)
	})

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	lineService := service.NewLineService(uowFactory)
	swipeService := service.NewSwipeService(uowFactory)
	quotaService := service.NewQuotaService(uowFactory)
	insightService := service.NewInsightService(uowFactory)

	userA := int64(111111)
	userB := int64(222222)

	// Seed the catalog
	var lines []*models.Line
	for i := 1; i <= 6; i++ {
		line := testutil.CreateTestLine(i)
		require.NoError(t, lineService.UpsertLine(ctx, line))
		lines = append(lines, line)
	}

	t.Run("first swipes consume quota and unlock insights", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			swipe, err := swipeService.RecordSwipe(ctx, userA, lines[i].ID, models.SwipeDirectionConfident, models.SwipeStatusBias, nil, "feed")
			require.NoError(t, err)
			assert.NotZero(t, swipe.ID)
		}

		status, err := quotaService.GetQuota(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, 3, status.SwipesUsed)
		assert.Equal(t, 2, status.Remaining)

		unlocked, err := insightService.CanViewInsights(ctx, userA)
		require.NoError(t, err)
		assert.True(t, unlocked)

		agg, err := insightService.GetLineAggregate(ctx, userA, lines[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, agg.ConfidentCount)
		assert.Equal(t, 0, agg.DoubtCount)
	})

	t.Run("gate stays shut for light users", func(t *testing.T) {
		_, err := insightService.GetLineAggregate(ctx, userB, lines[0].ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("changing sides moves both tallies and spares quota", func(t *testing.T) {
		swipe, err := swipeService.RecordSwipe(ctx, userA, lines[0].ID, models.SwipeDirectionDoubt, models.SwipeStatusBias, nil, "feed")
		require.NoError(t, err)
		assert.Equal(t, models.SwipeDirectionDoubt, swipe.Direction)

		agg, err := insightService.GetLineAggregate(ctx, userA, lines[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 0, agg.ConfidentCount)
		assert.Equal(t, 1, agg.DoubtCount)

		status, err := quotaService.GetQuota(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, 3, status.SwipesUsed)
	})

	t.Run("removal releases the tally but not the quota", func(t *testing.T) {
		require.NoError(t, swipeService.RemoveSwipe(ctx, userA, lines[1].ID))

		status, err := quotaService.GetQuota(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, 3, status.SwipesUsed)

		// Two swipes left, below the gate again
		unlocked, err := insightService.CanViewInsights(ctx, userA)
		require.NoError(t, err)
		assert.False(t, unlocked)
	})

	t.Run("spent allowance blocks new lines only", func(t *testing.T) {
		for i := 3; i <= 4; i++ {
			_, err := swipeService.RecordSwipe(ctx, userA, lines[i].ID, models.SwipeDirectionConfident, models.SwipeStatusBias, nil, "feed")
			require.NoError(t, err)
		}

		// Allowance of five is spent
		_, err := swipeService.RecordSwipe(ctx, userA, lines[5].ID, models.SwipeDirectionConfident, models.SwipeStatusBias, nil, "feed")
		assert.ErrorIs(t, err, service.ErrQuotaExceeded)

		// Existing engagements keep working
		_, err = swipeService.RecordSwipe(ctx, userA, lines[0].ID, models.SwipeDirectionConfident, models.SwipeStatusLocks, nil, "locks")
		require.NoError(t, err)

		status, err := quotaService.GetQuota(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, 5, status.SwipesUsed)
		assert.Equal(t, 0, status.Remaining)
	})

	t.Run("upgrade lifts the cap mid-period", func(t *testing.T) {
		require.NoError(t, quotaService.SetTier(ctx, userA, models.QuotaTierPro))

		swipe, err := swipeService.RecordSwipe(ctx, userA, lines[5].ID, models.SwipeDirectionDoubt, models.SwipeStatusBias, nil, "feed")
		require.NoError(t, err)
		assert.NotZero(t, swipe.ID)

		status, err := quotaService.GetQuota(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, models.QuotaTierPro, status.Tier)
		assert.Equal(t, 6, status.SwipesUsed)
	})

	t.Run("tallies agree with a ledger recount", func(t *testing.T) {
		swipeRepo := repository.NewSwipeRepository(testDB.DB)
		aggregateRepo := repository.NewLineAggregateRepository(testDB.DB)

		for _, line := range lines {
			confident, doubt, err := swipeRepo.CountByLine(ctx, line.ID)
			require.NoError(t, err)

			agg, err := aggregateRepo.GetByLineID(ctx, line.ID)
			require.NoError(t, err)
			if agg == nil {
				assert.Zero(t, confident)
				assert.Zero(t, doubt)
				continue
			}
			assert.Equal(t, confident, agg.ConfidentCount, "line %d confident", line.ID)
			assert.Equal(t, doubt, agg.DoubtCount, "line %d doubt", line.ID)
		}
	})

	t.Run("committed admissions reach subscribers", func(t *testing.T) {
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(recorded) >= 6
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func TestSnapshotWorkflow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	cfg := config.Get()
	originalMinSwipes := cfg.InsightMinSwipes
	cfg.InsightMinSwipes = 1
	defer func() {
		cfg.InsightMinSwipes = originalMinSwipes
	}()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	lineService := service.NewLineService(uowFactory)
	swipeService := service.NewSwipeService(uowFactory)
	insightService := service.NewInsightService(uowFactory)
	snapshotService := service.NewSnapshotService(
		repository.NewLineRepository(testDB.DB),
		repository.NewLineAggregateRepository(testDB.DB),
		repository.NewLineSnapshotRepository(testDB.DB),
		eventBus,
	)

	userID := int64(111111)

	swiped := testutil.CreateTestLine(1)
	require.NoError(t, lineService.UpsertLine(ctx, swiped))
	untouched := testutil.CreateTestLine(2)
	require.NoError(t, lineService.UpsertLine(ctx, untouched))

	_, err := swipeService.RecordSwipe(ctx, userID, swiped.ID, models.SwipeDirectionConfident, models.SwipeStatusBias, nil, "feed")
	require.NoError(t, err)

	day := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)

	t.Run("captures every active line once", func(t *testing.T) {
		run, err := snapshotService.CaptureDailySnapshots(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 2, run.LinesCaptured)
		assert.Equal(t, 0, run.LinesSkipped)
		assert.Equal(t, 0, run.LinesFailed)
	})

	t.Run("rerun for the same day captures nothing", func(t *testing.T) {
		run, err := snapshotService.CaptureDailySnapshots(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 0, run.LinesCaptured)
		assert.Equal(t, 2, run.LinesSkipped)
	})

	t.Run("history serves through the insight gate", func(t *testing.T) {
		snapshots, err := insightService.ListLineSnapshots(ctx, userID, swiped.ID, nil, nil)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, 1, snapshots[0].ConfidentCount)
		assert.Equal(t, swiped.HomeOdds, snapshots[0].HomeOdds)

		// The untouched line froze zero tallies
		zero, err := insightService.ListLineSnapshots(ctx, userID, untouched.ID, nil, nil)
		require.NoError(t, err)
		require.Len(t, zero, 1)
		assert.Equal(t, 0, zero[0].ConfidentCount)
		assert.Equal(t, 0, zero[0].DoubtCount)
	})

	t.Run("next day is a fresh capture", func(t *testing.T) {
		run, err := snapshotService.CaptureDailySnapshots(ctx, day.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, run.LinesCaptured)

		snapshots, err := insightService.ListLineSnapshots(ctx, userID, swiped.ID, nil, nil)
		require.NoError(t, err)
		assert.Len(t, snapshots, 2)
	})
}
