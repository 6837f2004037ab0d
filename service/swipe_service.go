package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lineswipe/events"
	"lineswipe/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// admissionRetryAttempts bounds the internal retries on conflicting
// concurrent admissions before surfacing ErrConflict
const admissionRetryAttempts = 3

type swipeService struct {
	uowFactory UnitOfWorkFactory
}

// NewSwipeService creates a new swipe service
func NewSwipeService(uowFactory UnitOfWorkFactory) SwipeService {
	return &swipeService{
		uowFactory: uowFactory,
	}
}

func (s *swipeService) RecordSwipe(ctx context.Context, userID, lineID int64, direction models.SwipeDirection, status models.SwipeStatus, cartBook *string, originScreen string) (*models.Swipe, error) {
	// Validate inputs
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid swipe direction %q", direction)
	}
	if status == "" {
		status = models.SwipeStatusBias
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid swipe status %q", status)
	}

	var swipe *models.Swipe
	err := s.withAdmissionRetry(ctx, func() error {
		var err error
		swipe, err = s.recordSwipeOnce(ctx, userID, lineID, direction, status, cartBook, originScreen)
		return err
	})
	if err != nil {
		return nil, err
	}

	return swipe, nil
}

// recordSwipeOnce runs one admission attempt as a single transaction:
// quota reservation, ledger write and tally adjustment commit together or
// not at all.
func (s *swipeService) recordSwipeOnce(ctx context.Context, userID, lineID int64, direction models.SwipeDirection, status models.SwipeStatus, cartBook *string, originScreen string) (*models.Swipe, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	line, err := uow.LineRepository().GetByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	// The row lock keeps the old direction stable until our adjustment commits
	existing, err := uow.SwipeRepository().GetByUserAndLineForUpdate(ctx, userID, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing swipe: %w", err)
	}

	now := time.Now().UTC()
	firstSwipe := existing == nil

	var swipe *models.Swipe
	var oldDirection models.SwipeDirection

	if firstSwipe {
		// Only a first engagement with a line consumes quota
		if err := reserveQuota(ctx, uow, userID, now); err != nil {
			return nil, err
		}

		swipe = &models.Swipe{
			UserID:       userID,
			LineID:       lineID,
			Direction:    direction,
			Status:       status,
			CartBook:     cartBook,
			OriginScreen: originScreen,
		}
		if err := uow.SwipeRepository().Create(ctx, swipe); err != nil {
			return nil, fmt.Errorf("failed to create swipe: %w", err)
		}
	} else {
		// Re-swiping updates the record in place and never touches quota
		oldDirection = existing.Direction
		existing.Direction = direction
		existing.Status = status
		existing.CartBook = cartBook
		existing.OriginScreen = originScreen
		if err := uow.SwipeRepository().Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update swipe: %w", err)
		}
		swipe = existing
	}

	// A same-direction update leaves the tallies alone
	confidentDelta, doubtDelta := models.SwipeDelta(oldDirection, direction)
	if confidentDelta != 0 || doubtDelta != 0 {
		agg, err := uow.LineAggregateRepository().ApplyDelta(ctx, lineID, confidentDelta, doubtDelta)
		if err != nil {
			return nil, fmt.Errorf("failed to apply aggregate delta: %w", err)
		}

		uow.EventBus().Publish(events.AggregateUpdatedEvent{
			LineID:         lineID,
			ConfidentCount: agg.ConfidentCount,
			DoubtCount:     agg.DoubtCount,
		})
	}

	uow.EventBus().Publish(events.SwipeRecordedEvent{
		UserID:       userID,
		LineID:       lineID,
		Direction:    direction,
		OldDirection: oldDirection,
		FirstSwipe:   firstSwipe,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return swipe, nil
}

func (s *swipeService) RemoveSwipe(ctx context.Context, userID, lineID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	swipe, err := uow.SwipeRepository().GetByUserAndLineForUpdate(ctx, userID, lineID)
	if err != nil {
		return fmt.Errorf("failed to get swipe: %w", err)
	}
	if swipe == nil {
		return ErrSwipeNotFound
	}

	if err := uow.SwipeRepository().Delete(ctx, swipe.ID); err != nil {
		return fmt.Errorf("failed to delete swipe: %w", err)
	}

	// Removal does not refund quota; the engagement already happened
	confidentDelta, doubtDelta := models.SwipeDelta(swipe.Direction, "")
	agg, err := uow.LineAggregateRepository().ApplyDelta(ctx, lineID, confidentDelta, doubtDelta)
	if err != nil {
		return fmt.Errorf("failed to apply aggregate delta: %w", err)
	}

	uow.EventBus().Publish(events.SwipeRemovedEvent{
		UserID:    userID,
		LineID:    lineID,
		Direction: swipe.Direction,
	})
	uow.EventBus().Publish(events.AggregateUpdatedEvent{
		LineID:         lineID,
		ConfidentCount: agg.ConfidentCount,
		DoubtCount:     agg.DoubtCount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *swipeService) ListSwipes(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("invalid swipe status %q", status)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	swipes, err := uow.SwipeRepository().ListByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list swipes: %w", err)
	}

	return swipes, nil
}

// withAdmissionRetry retries op on database conflicts caused by concurrent
// admissions. Domain outcomes and other failures pass through untouched.
func (s *swipeService) withAdmissionRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 25 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isAdmissionConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, admissionRetryAttempts), ctx))

	if err != nil && isAdmissionConflict(err) {
		log.WithError(err).Warn("Swipe admission kept conflicting after retries")
		return fmt.Errorf("admission retries exhausted: %w", ErrConflict)
	}

	return err
}

// isAdmissionConflict reports whether err is a transient collision between
// concurrent admissions: a serialization failure, a deadlock, or the unique
// violation produced when two first swipes on the same line race.
func isAdmissionConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	}
	return false
}
