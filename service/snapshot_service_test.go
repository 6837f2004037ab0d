package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lineswipe/events"
	"lineswipe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSnapshotService_CaptureDailySnapshots(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)

	// Setup mocks
	mockLineRepo := new(MockLineRepository)
	mockAggregateRepo := new(MockLineAggregateRepository)
	mockSnapshotRepo := new(MockLineSnapshotRepository)

	service := NewSnapshotService(mockLineRepo, mockAggregateRepo, mockSnapshotRepo, events.NewBus())

	point := 3.5
	lines := []*models.Line{
		{ID: 1, HomeOdds: -110, AwayOdds: -108, Point: &point, Active: true},
		{ID: 2, HomeOdds: 150, AwayOdds: -170, Active: true},
		{ID: 3, HomeOdds: -105, AwayOdds: -115, Active: true},
		{ID: 4, HomeOdds: 200, AwayOdds: -240, Active: true},
	}

	// Mock expectations. Lines capture concurrently on a derived context,
	// so the repo calls match on any context.
	mockLineRepo.On("GetActive", ctx).Return(lines, nil)

	// Line 1: swiped line, fresh capture
	mockAggregateRepo.On("GetByLineID", mock.Anything, int64(1)).Return(&models.LineAggregate{
		LineID: 1, ConfidentCount: 7, DoubtCount: 2,
	}, nil)
	mockSnapshotRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.LineSnapshot) bool {
		return s.LineID == 1 && s.ConfidentCount == 7 && s.DoubtCount == 2 &&
			s.HomeOdds == -110 && s.SnapshotDate.Equal(day)
	})).Return(true, nil)

	// Line 2: already captured today
	mockAggregateRepo.On("GetByLineID", mock.Anything, int64(2)).Return(&models.LineAggregate{
		LineID: 2, ConfidentCount: 1, DoubtCount: 0,
	}, nil)
	mockSnapshotRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.LineSnapshot) bool {
		return s.LineID == 2
	})).Return(false, nil)

	// Line 3: aggregate lookup fails, the run keeps going
	mockAggregateRepo.On("GetByLineID", mock.Anything, int64(3)).Return(nil, errors.New("connection reset"))

	// Line 4: no swipes yet, captured with zero tallies
	mockAggregateRepo.On("GetByLineID", mock.Anything, int64(4)).Return(nil, nil)
	mockSnapshotRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.LineSnapshot) bool {
		return s.LineID == 4 && s.ConfidentCount == 0 && s.DoubtCount == 0
	})).Return(true, nil)

	// Execute
	run, err := service.CaptureDailySnapshots(ctx, day)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 2, run.LinesCaptured)
	assert.Equal(t, 1, run.LinesSkipped)
	assert.Equal(t, 1, run.LinesFailed)
	assert.Equal(t, day, run.RunDate)
	mockLineRepo.AssertExpectations(t)
	mockAggregateRepo.AssertExpectations(t)
	mockSnapshotRepo.AssertExpectations(t)
}

func TestSnapshotService_CaptureDailySnapshots_NoActiveLines(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)

	// Setup mocks
	mockLineRepo := new(MockLineRepository)
	mockAggregateRepo := new(MockLineAggregateRepository)
	mockSnapshotRepo := new(MockLineSnapshotRepository)

	service := NewSnapshotService(mockLineRepo, mockAggregateRepo, mockSnapshotRepo, events.NewBus())

	// Mock expectations
	mockLineRepo.On("GetActive", ctx).Return([]*models.Line{}, nil)

	// Execute
	run, err := service.CaptureDailySnapshots(ctx, day)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 0, run.LinesCaptured)
	assert.Equal(t, 0, run.LinesSkipped)
	assert.Equal(t, 0, run.LinesFailed)
	mockSnapshotRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockLineRepo.AssertExpectations(t)
}

func TestSnapshotService_CaptureDailySnapshots_ListFails(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)

	// Setup mocks
	mockLineRepo := new(MockLineRepository)
	mockAggregateRepo := new(MockLineAggregateRepository)
	mockSnapshotRepo := new(MockLineSnapshotRepository)

	service := NewSnapshotService(mockLineRepo, mockAggregateRepo, mockSnapshotRepo, events.NewBus())

	// Mock expectations
	mockLineRepo.On("GetActive", ctx).Return(nil, errors.New("database down"))

	// Execute
	run, err := service.CaptureDailySnapshots(ctx, day)

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get active lines")
	assert.Nil(t, run)
	mockLineRepo.AssertExpectations(t)
}
