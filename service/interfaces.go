package service

import (
	"context"
	"time"

	"lineswipe/events"
	"lineswipe/models"
)

// LineRepository defines the interface for betting line data access
type LineRepository interface {
	// Upsert creates a line or refreshes the mutable fields of an existing one
	Upsert(ctx context.Context, line *models.Line) error

	// GetByID retrieves a line by its ID
	GetByID(ctx context.Context, lineID int64) (*models.Line, error)

	// GetActive returns all lines currently open for swiping
	GetActive(ctx context.Context) ([]*models.Line, error)
}

// SwipeRepository defines the interface for swipe ledger data access
type SwipeRepository interface {
	// GetByUserAndLine returns the user's swipe on a line, or nil if none exists
	GetByUserAndLine(ctx context.Context, userID, lineID int64) (*models.Swipe, error)

	// GetByUserAndLineForUpdate is GetByUserAndLine with a row lock held to commit
	GetByUserAndLineForUpdate(ctx context.Context, userID, lineID int64) (*models.Swipe, error)

	// Create inserts a new swipe
	Create(ctx context.Context, swipe *models.Swipe) error

	// Update rewrites the mutable fields of an existing swipe in place
	Update(ctx context.Context, swipe *models.Swipe) error

	// Delete removes a swipe by ID
	Delete(ctx context.Context, swipeID int64) error

	// CountByUser returns how many lines the user has engaged
	CountByUser(ctx context.Context, userID int64) (int, error)

	// ListByUser returns a user's swipes, optionally filtered by status
	ListByUser(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error)

	// CountByLine recomputes a line's tallies from the ledger
	CountByLine(ctx context.Context, lineID int64) (confident int, doubt int, err error)
}

// LineAggregateRepository defines the interface for community tally data access
type LineAggregateRepository interface {
	// ApplyDelta adjusts a line's tallies in one atomic step, creating the row on first use
	ApplyDelta(ctx context.Context, lineID int64, confidentDelta, doubtDelta int) (*models.LineAggregate, error)

	// GetByLineID returns the tallies for a line, or nil if no one has swiped it
	GetByLineID(ctx context.Context, lineID int64) (*models.LineAggregate, error)

	// GetTrending returns the most swiped active lines with their tallies
	GetTrending(ctx context.Context, limit int) ([]*models.TrendingLine, error)
}

// UserQuotaRepository defines the interface for quota tracking data access
type UserQuotaRepository interface {
	// Get returns the user's quota row, or nil if they have never swiped
	Get(ctx context.Context, userID int64) (*models.UserQuota, error)

	// GetForUpdate returns the user's quota row with a row lock, or nil if none exists
	GetForUpdate(ctx context.Context, userID int64) (*models.UserQuota, error)

	// Create inserts a fresh quota row; a concurrent create is absorbed
	Create(ctx context.Context, quota *models.UserQuota) error

	// Update rewrites the user's quota row
	Update(ctx context.Context, quota *models.UserQuota) error
}

// LineSnapshotRepository defines the interface for daily snapshot data access
type LineSnapshotRepository interface {
	// Create inserts a snapshot, returning false when the line and day already have one
	Create(ctx context.Context, snapshot *models.LineSnapshot) (bool, error)

	// GetByLineAndDate returns the snapshot for a line on a specific day, or nil
	GetByLineAndDate(ctx context.Context, lineID int64, date time.Time) (*models.LineSnapshot, error)

	// ListByLine returns a line's snapshots in date order, optionally bounded
	ListByLine(ctx context.Context, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error)
}

// SwipeService defines the interface for swipe admission operations
type SwipeService interface {
	// RecordSwipe admits a swipe: quota, ledger and tallies move in one transaction.
	// Swiping a line the user already swiped updates the record in place.
	RecordSwipe(ctx context.Context, userID, lineID int64, direction models.SwipeDirection, status models.SwipeStatus, cartBook *string, originScreen string) (*models.Swipe, error)

	// RemoveSwipe deletes the user's swipe on a line and reconciles the tallies
	RemoveSwipe(ctx context.Context, userID, lineID int64) error

	// ListSwipes returns the user's swipes, optionally filtered by status
	ListSwipes(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error)
}

// QuotaService defines the interface for quota visibility and tier changes
type QuotaService interface {
	// GetQuota returns the user's current allowance, applying the lazy period reset
	GetQuota(ctx context.Context, userID int64) (*models.QuotaStatus, error)

	// SetTier changes the user's subscription tier
	SetTier(ctx context.Context, userID int64, tier models.QuotaTier) error
}

// InsightService defines the interface for gated aggregate and snapshot reads
type InsightService interface {
	// CanViewInsights checks whether the user has unlocked community data
	CanViewInsights(ctx context.Context, userID int64) (bool, error)

	// GetLineAggregate returns a line's tallies to an unlocked user
	GetLineAggregate(ctx context.Context, userID, lineID int64) (*models.LineAggregate, error)

	// ListLineSnapshots returns a line's snapshot history to an unlocked user
	ListLineSnapshots(ctx context.Context, userID, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error)

	// GetTrendingLines returns the most swiped lines to an unlocked user
	GetTrendingLines(ctx context.Context, userID int64, limit int) ([]*models.TrendingLine, error)
}

// SnapshotService defines the interface for the daily snapshot job
type SnapshotService interface {
	// CaptureDailySnapshots freezes odds and tallies for every active line.
	// Running twice for the same day is a no-op for already captured lines.
	CaptureDailySnapshots(ctx context.Context, day time.Time) (*models.SnapshotRun, error)
}

// LineService defines the interface for line catalog operations
type LineService interface {
	// UpsertLine creates or refreshes a line from the feed boundary
	UpsertLine(ctx context.Context, line *models.Line) error

	// GetLine retrieves a line by ID
	GetLine(ctx context.Context, lineID int64) (*models.Line, error)

	// ListActiveLines returns all lines open for swiping
	ListActiveLines(ctx context.Context) ([]*models.Line, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LineRepository() LineRepository
	SwipeRepository() SwipeRepository
	LineAggregateRepository() LineAggregateRepository
	UserQuotaRepository() UserQuotaRepository
	LineSnapshotRepository() LineSnapshotRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
