package repository

import (
	"context"
	"fmt"
	"time"

	"lineswipe/database"
	"lineswipe/models"

	"github.com/jackc/pgx/v5"
)

// LineSnapshotRepository implements daily snapshot data access
type LineSnapshotRepository struct {
	q queryable
}

// NewLineSnapshotRepository creates a new line snapshot repository
func NewLineSnapshotRepository(db *database.DB) *LineSnapshotRepository {
	return &LineSnapshotRepository{q: db.Pool}
}

// newLineSnapshotRepositoryWithTx creates a new line snapshot repository with a transaction
func newLineSnapshotRepositoryWithTx(tx queryable) *LineSnapshotRepository {
	return &LineSnapshotRepository{q: tx}
}

// dateOnly normalizes a timestamp to midnight in its own location
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Create inserts a snapshot for the line and day. Returns false without
// error when a snapshot already exists for that day, so a rerun of the
// capture job is a no-op.
func (r *LineSnapshotRepository) Create(ctx context.Context, snapshot *models.LineSnapshot) (bool, error) {
	snapshot.SnapshotDate = dateOnly(snapshot.SnapshotDate)

	query := `
		INSERT INTO line_snapshots (line_id, snapshot_date, home_odds, away_odds, point, confident_count, doubt_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (line_id, snapshot_date) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		snapshot.LineID,
		snapshot.SnapshotDate,
		snapshot.HomeOdds,
		snapshot.AwayOdds,
		snapshot.Point,
		snapshot.ConfidentCount,
		snapshot.DoubtCount,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)

	if err == pgx.ErrNoRows {
		// Conflict: a snapshot for this line and day already exists
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create snapshot for line %d on %s: %w",
			snapshot.LineID, snapshot.SnapshotDate.Format("2006-01-02"), err)
	}

	return true, nil
}

// GetByLineAndDate returns the snapshot for a line on a specific day, or
// nil if none was captured
func (r *LineSnapshotRepository) GetByLineAndDate(ctx context.Context, lineID int64, date time.Time) (*models.LineSnapshot, error) {
	date = dateOnly(date)

	query := `
		SELECT id, line_id, snapshot_date, home_odds, away_odds, point, confident_count, doubt_count, created_at
		FROM line_snapshots
		WHERE line_id = $1 AND snapshot_date = $2
	`

	var snapshot models.LineSnapshot
	err := r.q.QueryRow(ctx, query, lineID, date).Scan(
		&snapshot.ID,
		&snapshot.LineID,
		&snapshot.SnapshotDate,
		&snapshot.HomeOdds,
		&snapshot.AwayOdds,
		&snapshot.Point,
		&snapshot.ConfidentCount,
		&snapshot.DoubtCount,
		&snapshot.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for line %d on %s: %w",
			lineID, date.Format("2006-01-02"), err)
	}

	return &snapshot, nil
}

// ListByLine returns a line's snapshots in date order. from and to bound
// the range when non-nil.
func (r *LineSnapshotRepository) ListByLine(ctx context.Context, lineID int64, from, to *time.Time) ([]*models.LineSnapshot, error) {
	query := `
		SELECT id, line_id, snapshot_date, home_odds, away_odds, point, confident_count, doubt_count, created_at
		FROM line_snapshots
		WHERE line_id = $1
		  AND ($2::date IS NULL OR snapshot_date >= $2)
		  AND ($3::date IS NULL OR snapshot_date <= $3)
		ORDER BY snapshot_date ASC
	`

	rows, err := r.q.Query(ctx, query, lineID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for line %d: %w", lineID, err)
	}
	defer rows.Close()

	var snapshots []*models.LineSnapshot
	for rows.Next() {
		var snapshot models.LineSnapshot
		err := rows.Scan(
			&snapshot.ID,
			&snapshot.LineID,
			&snapshot.SnapshotDate,
			&snapshot.HomeOdds,
			&snapshot.AwayOdds,
			&snapshot.Point,
			&snapshot.ConfidentCount,
			&snapshot.DoubtCount,
			&snapshot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}
