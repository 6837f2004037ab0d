package api

import (
	"context"
	"time"

	"lineswipe/models"

	"github.com/stretchr/testify/mock"
)

// MockSwipeService is a mock implementation of service.SwipeService
type MockSwipeService struct {
	mock.Mock
}

func (m *MockSwipeService) RecordSwipe(ctx context.Context, userID, lineID int64, direction models.SwipeDirection, status models.SwipeStatus, cartBook *string, originScreen string) (*models.Swipe, error) {
	args := m.Called(ctx, userID, lineID, direction, status, cartBook, originScreen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Swipe), args.Error(1)
}

func (m *MockSwipeService) RemoveSwipe(ctx context.Context, userID, lineID int64) error {
	args := m.Called(ctx, userID, lineID)
	return args.Error(0)
}

func (m *MockSwipeService) ListSwipes(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Swipe), args.Error(1)
}

// MockQuotaService is a mock implementation of service.QuotaService
type MockQuotaService struct {
	mock.Mock
}

func (m *MockQuotaService) GetQuota(ctx context.Context, userID int64) (*models.QuotaStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuotaStatus), args.Error(1)
}

func (m *MockQuotaService) SetTier(ctx context.Context, userID int64, tier models.QuotaTier) error {
	args := m.Called(ctx, userID, tier)
	return args.Error(0)
}

// MockInsightService is a mock implementation of service.InsightService
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) CanViewInsights(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInsightService) GetLineAggregate(ctx context.Context, userID, lineID int64) (*models.LineAggregate, error) {
	args := m.Called(ctx, userID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineAggregate), args.Error(1)
}

func (m *MockInsightService) ListLineSnapshots(ctx context.Context, userID, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error) {
	args := m.Called(ctx, userID, lineID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LineSnapshot), args.Error(1)
}

func (m *MockInsightService) GetTrendingLines(ctx context.Context, userID int64, limit int) ([]*models.TrendingLine, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrendingLine), args.Error(1)
}

// MockLineService is a mock implementation of service.LineService
type MockLineService struct {
	mock.Mock
}

func (m *MockLineService) UpsertLine(ctx context.Context, line *models.Line) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockLineService) GetLine(ctx context.Context, lineID int64) (*models.Line, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Line), args.Error(1)
}

func (m *MockLineService) ListActiveLines(ctx context.Context) ([]*models.Line, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Line), args.Error(1)
}
