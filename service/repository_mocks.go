package service

import (
	"context"
	"time"

	"lineswipe/events"
	"lineswipe/models"

	"github.com/stretchr/testify/mock"
)

// MockLineRepository is a mock implementation of LineRepository
type MockLineRepository struct {
	mock.Mock
}

func (m *MockLineRepository) Upsert(ctx context.Context, line *models.Line) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockLineRepository) GetByID(ctx context.Context, lineID int64) (*models.Line, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Line), args.Error(1)
}

func (m *MockLineRepository) GetActive(ctx context.Context) ([]*models.Line, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Line), args.Error(1)
}

// MockSwipeRepository is a mock implementation of SwipeRepository
type MockSwipeRepository struct {
	mock.Mock
}

func (m *MockSwipeRepository) GetByUserAndLine(ctx context.Context, userID, lineID int64) (*models.Swipe, error) {
	args := m.Called(ctx, userID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Swipe), args.Error(1)
}

func (m *MockSwipeRepository) GetByUserAndLineForUpdate(ctx context.Context, userID, lineID int64) (*models.Swipe, error) {
	args := m.Called(ctx, userID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Swipe), args.Error(1)
}

func (m *MockSwipeRepository) Create(ctx context.Context, swipe *models.Swipe) error {
	args := m.Called(ctx, swipe)
	return args.Error(0)
}

func (m *MockSwipeRepository) Update(ctx context.Context, swipe *models.Swipe) error {
	args := m.Called(ctx, swipe)
	return args.Error(0)
}

func (m *MockSwipeRepository) Delete(ctx context.Context, swipeID int64) error {
	args := m.Called(ctx, swipeID)
	return args.Error(0)
}

func (m *MockSwipeRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockSwipeRepository) ListByUser(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Swipe), args.Error(1)
}

func (m *MockSwipeRepository) CountByLine(ctx context.Context, lineID int64) (int, int, error) {
	args := m.Called(ctx, lineID)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockLineAggregateRepository is a mock implementation of LineAggregateRepository
type MockLineAggregateRepository struct {
	mock.Mock
}

func (m *MockLineAggregateRepository) ApplyDelta(ctx context.Context, lineID int64, confidentDelta, doubtDelta int) (*models.LineAggregate, error) {
	args := m.Called(ctx, lineID, confidentDelta, doubtDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineAggregate), args.Error(1)
}

func (m *MockLineAggregateRepository) GetByLineID(ctx context.Context, lineID int64) (*models.LineAggregate, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineAggregate), args.Error(1)
}

func (m *MockLineAggregateRepository) GetTrending(ctx context.Context, limit int) ([]*models.TrendingLine, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrendingLine), args.Error(1)
}

// MockUserQuotaRepository is a mock implementation of UserQuotaRepository
type MockUserQuotaRepository struct {
	mock.Mock
}

func (m *MockUserQuotaRepository) Get(ctx context.Context, userID int64) (*models.UserQuota, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserQuota), args.Error(1)
}

func (m *MockUserQuotaRepository) GetForUpdate(ctx context.Context, userID int64) (*models.UserQuota, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserQuota), args.Error(1)
}

func (m *MockUserQuotaRepository) Create(ctx context.Context, quota *models.UserQuota) error {
	args := m.Called(ctx, quota)
	return args.Error(0)
}

func (m *MockUserQuotaRepository) Update(ctx context.Context, quota *models.UserQuota) error {
	args := m.Called(ctx, quota)
	return args.Error(0)
}

// MockLineSnapshotRepository is a mock implementation of LineSnapshotRepository
type MockLineSnapshotRepository struct {
	mock.Mock
}

func (m *MockLineSnapshotRepository) Create(ctx context.Context, snapshot *models.LineSnapshot) (bool, error) {
	args := m.Called(ctx, snapshot)
	return args.Bool(0), args.Error(1)
}

func (m *MockLineSnapshotRepository) GetByLineAndDate(ctx context.Context, lineID int64, date time.Time) (*models.LineSnapshot, error) {
	args := m.Called(ctx, lineID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineSnapshot), args.Error(1)
}

func (m *MockLineSnapshotRepository) ListByLine(ctx context.Context, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error) {
	args := m.Called(ctx, lineID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LineSnapshot), args.Error(1)
}

// CapturingEventBus records published events for assertions
type CapturingEventBus struct {
	Published []events.Event
}

func (b *CapturingEventBus) Publish(e events.Event) {
	b.Published = append(b.Published, e)
}

// EventsOfType returns the captured events matching the given type
func (b *CapturingEventBus) EventsOfType(t events.EventType) []events.Event {
	var matched []events.Event
	for _, e := range b.Published {
		if e.Type() == t {
			matched = append(matched, e)
		}
	}
	return matched
}

// MockUnitOfWork wires the repository mocks behind the UnitOfWork interface.
// Begin, Commit and Rollback are testify expectations; the repository
// getters hand out the embedded mocks directly.
type MockUnitOfWork struct {
	mock.Mock
	LineRepo      *MockLineRepository
	SwipeRepo     *MockSwipeRepository
	AggregateRepo *MockLineAggregateRepository
	QuotaRepo     *MockUserQuotaRepository
	SnapshotRepo  *MockLineSnapshotRepository
	Events        *CapturingEventBus
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		LineRepo:      &MockLineRepository{},
		SwipeRepo:     &MockSwipeRepository{},
		AggregateRepo: &MockLineAggregateRepository{},
		QuotaRepo:     &MockUserQuotaRepository{},
		SnapshotRepo:  &MockLineSnapshotRepository{},
		Events:        &CapturingEventBus{},
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LineRepository() LineRepository {
	return m.LineRepo
}

func (m *MockUnitOfWork) SwipeRepository() SwipeRepository {
	return m.SwipeRepo
}

func (m *MockUnitOfWork) LineAggregateRepository() LineAggregateRepository {
	return m.AggregateRepo
}

func (m *MockUnitOfWork) UserQuotaRepository() UserQuotaRepository {
	return m.QuotaRepo
}

func (m *MockUnitOfWork) LineSnapshotRepository() LineSnapshotRepository {
	return m.SnapshotRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// AssertExpectations asserts the unit of work and every embedded repository
// mock
func (m *MockUnitOfWork) AssertExpectations(t mock.TestingT) bool {
	ok := m.Mock.AssertExpectations(t)
	ok = m.LineRepo.AssertExpectations(t) && ok
	ok = m.SwipeRepo.AssertExpectations(t) && ok
	ok = m.AggregateRepo.AssertExpectations(t) && ok
	ok = m.QuotaRepo.AssertExpectations(t) && ok
	ok = m.SnapshotRepo.AssertExpectations(t) && ok
	return ok
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
