package repository

import (
	"context"
	"fmt"

	"lineswipe/database"
	"lineswipe/models"

	"github.com/jackc/pgx/v5"
)

// SwipeRepository implements swipe ledger data access
type SwipeRepository struct {
	q queryable
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *database.DB) *SwipeRepository {
	return &SwipeRepository{q: db.Pool}
}

// newSwipeRepositoryWithTx creates a new swipe repository with a transaction
func newSwipeRepositoryWithTx(tx queryable) *SwipeRepository {
	return &SwipeRepository{q: tx}
}

const swipeColumns = `id, user_id, line_id, direction, status, cart_book, origin_screen, created_at, updated_at`

func scanSwipe(row pgx.Row) (*models.Swipe, error) {
	var swipe models.Swipe
	err := row.Scan(
		&swipe.ID,
		&swipe.UserID,
		&swipe.LineID,
		&swipe.Direction,
		&swipe.Status,
		&swipe.CartBook,
		&swipe.OriginScreen,
		&swipe.CreatedAt,
		&swipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// GetByUserAndLine returns the user's swipe on a line, or nil if they have
// not swiped it
func (r *SwipeRepository) GetByUserAndLine(ctx context.Context, userID, lineID int64) (*models.Swipe, error) {
	query := `
		SELECT ` + swipeColumns + `
		FROM swipes
		WHERE user_id = $1 AND line_id = $2
	`

	swipe, err := scanSwipe(r.q.QueryRow(ctx, query, userID, lineID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get swipe for user %d line %d: %w", userID, lineID, err)
	}

	return swipe, nil
}

// GetByUserAndLineForUpdate is GetByUserAndLine with a row lock. The caller
// reads the current direction to compute a tally adjustment, so the row must
// stay locked until the adjustment commits.
func (r *SwipeRepository) GetByUserAndLineForUpdate(ctx context.Context, userID, lineID int64) (*models.Swipe, error) {
	query := `
		SELECT ` + swipeColumns + `
		FROM swipes
		WHERE user_id = $1 AND line_id = $2
		FOR UPDATE
	`

	swipe, err := scanSwipe(r.q.QueryRow(ctx, query, userID, lineID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock swipe for user %d line %d: %w", userID, lineID, err)
	}

	return swipe, nil
}

// Create inserts a new swipe. The (user_id, line_id) unique constraint
// rejects a duplicate; callers treat that as a concurrent admission and
// retry.
func (r *SwipeRepository) Create(ctx context.Context, swipe *models.Swipe) error {
	query := `
		INSERT INTO swipes (user_id, line_id, direction, status, cart_book, origin_screen)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		swipe.UserID,
		swipe.LineID,
		swipe.Direction,
		swipe.Status,
		swipe.CartBook,
		swipe.OriginScreen,
	).Scan(&swipe.ID, &swipe.CreatedAt, &swipe.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create swipe: %w", err)
	}

	return nil
}

// Update rewrites the mutable fields of an existing swipe in place
func (r *SwipeRepository) Update(ctx context.Context, swipe *models.Swipe) error {
	query := `
		UPDATE swipes
		SET direction = $1, status = $2, cart_book = $3, origin_screen = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		swipe.Direction,
		swipe.Status,
		swipe.CartBook,
		swipe.OriginScreen,
		swipe.ID,
	).Scan(&swipe.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("swipe %d not found", swipe.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update swipe %d: %w", swipe.ID, err)
	}

	return nil
}

// Delete removes a swipe by ID
func (r *SwipeRepository) Delete(ctx context.Context, swipeID int64) error {
	query := `DELETE FROM swipes WHERE id = $1`

	result, err := r.q.Exec(ctx, query, swipeID)
	if err != nil {
		return fmt.Errorf("failed to delete swipe %d: %w", swipeID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("swipe %d not found", swipeID)
	}

	return nil
}

// CountByUser returns the user's total number of swipe records. Updates and
// direction changes do not add records, so this counts distinct lines the
// user has engaged.
func (r *SwipeRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM swipes WHERE user_id = $1`

	var count int
	err := r.q.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count swipes for user %d: %w", userID, err)
	}

	return count, nil
}

// ListByUser returns all of a user's swipes, newest first. status filters to
// a single pick list when non-empty.
func (r *SwipeRepository) ListByUser(ctx context.Context, userID int64, status models.SwipeStatus) ([]*models.Swipe, error) {
	query := `
		SELECT ` + swipeColumns + `
		FROM swipes
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY updated_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list swipes for user %d: %w", userID, err)
	}
	defer rows.Close()

	var swipes []*models.Swipe
	for rows.Next() {
		swipe, err := scanSwipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swipe: %w", err)
		}
		swipes = append(swipes, swipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate swipes: %w", err)
	}

	return swipes, nil
}

// CountByLine returns the ledger tallies for a line recomputed from the
// swipe records. Used by consistency checks, not by the read path.
func (r *SwipeRepository) CountByLine(ctx context.Context, lineID int64) (confident int, doubt int, err error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE direction = $2) as confident,
			COUNT(*) FILTER (WHERE direction = $3) as doubt
		FROM swipes
		WHERE line_id = $1
	`

	err = r.q.QueryRow(ctx, query, lineID,
		models.SwipeDirectionConfident,
		models.SwipeDirectionDoubt,
	).Scan(&confident, &doubt)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count swipes for line %d: %w", lineID, err)
	}

	return confident, doubt, nil
}
