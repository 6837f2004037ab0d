package repository

import (
	"context"
	"fmt"

	"lineswipe/database"
	"lineswipe/models"

	"github.com/jackc/pgx/v5"
)

// UserQuotaRepository implements quota tracking data access
type UserQuotaRepository struct {
	q queryable
}

// NewUserQuotaRepository creates a new user quota repository
func NewUserQuotaRepository(db *database.DB) *UserQuotaRepository {
	return &UserQuotaRepository{q: db.Pool}
}

// newUserQuotaRepositoryWithTx creates a new user quota repository with a transaction
func newUserQuotaRepositoryWithTx(tx queryable) *UserQuotaRepository {
	return &UserQuotaRepository{q: tx}
}

// Get returns the user's quota row, or nil if they have never swiped
func (r *UserQuotaRepository) Get(ctx context.Context, userID int64) (*models.UserQuota, error) {
	query := `
		SELECT user_id, tier, swipes_used, reset_at, created_at, updated_at
		FROM user_quotas
		WHERE user_id = $1
	`

	var quota models.UserQuota
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&quota.UserID,
		&quota.Tier,
		&quota.SwipesUsed,
		&quota.ResetAt,
		&quota.CreatedAt,
		&quota.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota for user %d: %w", userID, err)
	}

	return &quota, nil
}

// GetForUpdate returns the user's quota row with a row lock, or nil if they
// have never swiped. The lock serializes concurrent admissions by the same
// user for the rest of the transaction.
func (r *UserQuotaRepository) GetForUpdate(ctx context.Context, userID int64) (*models.UserQuota, error) {
	query := `
		SELECT user_id, tier, swipes_used, reset_at, created_at, updated_at
		FROM user_quotas
		WHERE user_id = $1
		FOR UPDATE
	`

	var quota models.UserQuota
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&quota.UserID,
		&quota.Tier,
		&quota.SwipesUsed,
		&quota.ResetAt,
		&quota.CreatedAt,
		&quota.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock quota for user %d: %w", userID, err)
	}

	return &quota, nil
}

// Create inserts a fresh quota row for a first-time user. A concurrent
// create by the same user is absorbed: the existing row wins and a
// follow-up GetForUpdate sees it.
func (r *UserQuotaRepository) Create(ctx context.Context, quota *models.UserQuota) error {
	query := `
		INSERT INTO user_quotas (user_id, tier, swipes_used, reset_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.q.Exec(ctx, query,
		quota.UserID,
		quota.Tier,
		quota.SwipesUsed,
		quota.ResetAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create quota for user %d: %w", quota.UserID, err)
	}

	return nil
}

// Update rewrites the user's quota row
func (r *UserQuotaRepository) Update(ctx context.Context, quota *models.UserQuota) error {
	query := `
		UPDATE user_quotas
		SET tier = $1, swipes_used = $2, reset_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $4
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		quota.Tier,
		quota.SwipesUsed,
		quota.ResetAt,
		quota.UserID,
	).Scan(&quota.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("quota for user %d not found", quota.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to update quota for user %d: %w", quota.UserID, err)
	}

	return nil
}
