package service

import (
	"context"
	"fmt"
	"time"

	"lineswipe/config"
	"lineswipe/models"
)

const (
	defaultTrendingLimit = 10
	maxTrendingLimit     = 50
)

type insightService struct {
	uowFactory UnitOfWorkFactory
}

// NewInsightService creates a new insight service
func NewInsightService(uowFactory UnitOfWorkFactory) InsightService {
	return &insightService{
		uowFactory: uowFactory,
	}
}

func (s *insightService) CanViewInsights(ctx context.Context, userID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return s.unlocked(ctx, uow, userID)
}

func (s *insightService) GetLineAggregate(ctx context.Context, userID, lineID int64) (*models.LineAggregate, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.ensureUnlocked(ctx, uow, userID); err != nil {
		return nil, err
	}

	line, err := uow.LineRepository().GetByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	agg, err := uow.LineAggregateRepository().GetByLineID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}
	if agg == nil {
		// A known line no one has swiped yet reads as zero tallies
		agg = &models.LineAggregate{LineID: lineID}
	}

	return agg, nil
}

func (s *insightService) ListLineSnapshots(ctx context.Context, userID, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.ensureUnlocked(ctx, uow, userID); err != nil {
		return nil, err
	}

	line, err := uow.LineRepository().GetByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	snapshots, err := uow.LineSnapshotRepository().ListByLine(ctx, lineID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return snapshots, nil
}

func (s *insightService) GetTrendingLines(ctx context.Context, userID int64, limit int) ([]*models.TrendingLine, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.ensureUnlocked(ctx, uow, userID); err != nil {
		return nil, err
	}

	trending, err := uow.LineAggregateRepository().GetTrending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending lines: %w", err)
	}

	return trending, nil
}

// unlocked recomputes the gate from the ledger on every call. Unlock state
// is never cached: the threshold can move and swipes can be removed.
func (s *insightService) unlocked(ctx context.Context, uow UnitOfWork, userID int64) (bool, error) {
	count, err := uow.SwipeRepository().CountByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count swipes: %w", err)
	}

	return count >= config.Get().InsightMinSwipes, nil
}

// ensureUnlocked is unlocked as a guard clause
func (s *insightService) ensureUnlocked(ctx context.Context, uow UnitOfWork, userID int64) error {
	ok, err := s.unlocked(ctx, uow, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
