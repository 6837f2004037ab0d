package repository

import (
	"context"
	"fmt"

	"lineswipe/database"
	"lineswipe/models"

	"github.com/jackc/pgx/v5"
)

// LineAggregateRepository implements community tally data access
type LineAggregateRepository struct {
	q queryable
}

// NewLineAggregateRepository creates a new line aggregate repository
func NewLineAggregateRepository(db *database.DB) *LineAggregateRepository {
	return &LineAggregateRepository{q: db.Pool}
}

// newLineAggregateRepositoryWithTx creates a new line aggregate repository with a transaction
func newLineAggregateRepositoryWithTx(tx queryable) *LineAggregateRepository {
	return &LineAggregateRepository{q: tx}
}

// ApplyDelta adjusts a line's tallies in a single statement, creating the
// row on first use. Both counts move together so a direction change is one
// atomic step. The non-negative check constraints reject any adjustment
// that would push a count below zero.
func (r *LineAggregateRepository) ApplyDelta(ctx context.Context, lineID int64, confidentDelta, doubtDelta int) (*models.LineAggregate, error) {
	query := `
		INSERT INTO line_aggregates (line_id, confident_count, doubt_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (line_id)
		DO UPDATE SET
			confident_count = line_aggregates.confident_count + $2,
			doubt_count = line_aggregates.doubt_count + $3,
			updated_at = CURRENT_TIMESTAMP
		RETURNING line_id, confident_count, doubt_count, created_at, updated_at
	`

	var agg models.LineAggregate
	err := r.q.QueryRow(ctx, query, lineID, confidentDelta, doubtDelta).Scan(
		&agg.LineID,
		&agg.ConfidentCount,
		&agg.DoubtCount,
		&agg.CreatedAt,
		&agg.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to apply aggregate delta for line %d: %w", lineID, err)
	}

	return &agg, nil
}

// GetByLineID returns the tallies for a line, or nil if no one has swiped
// it yet
func (r *LineAggregateRepository) GetByLineID(ctx context.Context, lineID int64) (*models.LineAggregate, error) {
	query := `
		SELECT line_id, confident_count, doubt_count, created_at, updated_at
		FROM line_aggregates
		WHERE line_id = $1
	`

	var agg models.LineAggregate
	err := r.q.QueryRow(ctx, query, lineID).Scan(
		&agg.LineID,
		&agg.ConfidentCount,
		&agg.DoubtCount,
		&agg.CreatedAt,
		&agg.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate for line %d: %w", lineID, err)
	}

	return &agg, nil
}

// GetTrending returns the most swiped active lines with their tallies
func (r *LineAggregateRepository) GetTrending(ctx context.Context, limit int) ([]*models.TrendingLine, error) {
	query := `
		SELECT l.id, l.external_game_id, l.sport, l.home_team, l.away_team, l.sportsbook, l.market,
		       l.home_odds, l.away_odds, l.point, l.starts_at, l.active, l.created_at, l.updated_at,
		       a.confident_count, a.doubt_count
		FROM line_aggregates a
		JOIN lines l ON l.id = a.line_id
		WHERE l.active
		ORDER BY a.confident_count + a.doubt_count DESC, l.id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending lines: %w", err)
	}
	defer rows.Close()

	var trending []*models.TrendingLine
	for rows.Next() {
		var line models.Line
		var entry models.TrendingLine
		err := rows.Scan(
			&line.ID,
			&line.ExternalGameID,
			&line.Sport,
			&line.HomeTeam,
			&line.AwayTeam,
			&line.Sportsbook,
			&line.Market,
			&line.HomeOdds,
			&line.AwayOdds,
			&line.Point,
			&line.StartsAt,
			&line.Active,
			&line.CreatedAt,
			&line.UpdatedAt,
			&entry.ConfidentCount,
			&entry.DoubtCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trending line: %w", err)
		}
		entry.Line = &line
		trending = append(trending, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trending lines: %w", err)
	}

	return trending, nil
}
