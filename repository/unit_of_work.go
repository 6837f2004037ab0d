package repository

import (
	"context"
	"fmt"

	"lineswipe/database"
	"lineswipe/events"
	"lineswipe/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	lineRepo         service.LineRepository
	swipeRepo        service.SwipeRepository
	aggregateRepo    service.LineAggregateRepository
	quotaRepo        service.UserQuotaRepository
	snapshotRepo     service.LineSnapshotRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.lineRepo = newLineRepositoryWithTx(tx)
	u.swipeRepo = newSwipeRepositoryWithTx(tx)
	u.aggregateRepo = newLineAggregateRepositoryWithTx(tx)
	u.quotaRepo = newUserQuotaRepositoryWithTx(tx)
	u.snapshotRepo = newLineSnapshotRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// LineRepository returns the line repository for this unit of work
func (u *unitOfWork) LineRepository() service.LineRepository {
	if u.lineRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.lineRepo
}

// SwipeRepository returns the swipe repository for this unit of work
func (u *unitOfWork) SwipeRepository() service.SwipeRepository {
	if u.swipeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.swipeRepo
}

// LineAggregateRepository returns the line aggregate repository for this unit of work
func (u *unitOfWork) LineAggregateRepository() service.LineAggregateRepository {
	if u.aggregateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.aggregateRepo
}

// UserQuotaRepository returns the user quota repository for this unit of work
func (u *unitOfWork) UserQuotaRepository() service.UserQuotaRepository {
	if u.quotaRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.quotaRepo
}

// LineSnapshotRepository returns the line snapshot repository for this unit of work
func (u *unitOfWork) LineSnapshotRepository() service.LineSnapshotRepository {
	if u.snapshotRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.snapshotRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
