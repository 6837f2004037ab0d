package service

import (
	"context"
	"fmt"

	"lineswipe/models"
)

type lineService struct {
	uowFactory UnitOfWorkFactory
}

// NewLineService creates a new line service
func NewLineService(uowFactory UnitOfWorkFactory) LineService {
	return &lineService{
		uowFactory: uowFactory,
	}
}

func (s *lineService) UpsertLine(ctx context.Context, line *models.Line) error {
	// Validate identity fields; the rest is refreshable feed data
	if line.ExternalGameID == "" {
		return fmt.Errorf("external game ID is required")
	}
	if line.Sportsbook == "" {
		return fmt.Errorf("sportsbook is required")
	}
	if line.Market == "" {
		return fmt.Errorf("market is required")
	}
	if line.HomeTeam == "" || line.AwayTeam == "" {
		return fmt.Errorf("both teams are required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.LineRepository().Upsert(ctx, line); err != nil {
		return fmt.Errorf("failed to upsert line: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *lineService) GetLine(ctx context.Context, lineID int64) (*models.Line, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	line, err := uow.LineRepository().GetByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	return line, nil
}

func (s *lineService) ListActiveLines(ctx context.Context) ([]*models.Line, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lines, err := uow.LineRepository().GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active lines: %w", err)
	}

	return lines, nil
}
