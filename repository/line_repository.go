package repository

import (
	"context"
	"fmt"

	"lineswipe/database"
	"lineswipe/models"

	"github.com/jackc/pgx/v5"
)

// LineRepository implements betting line data access
type LineRepository struct {
	q queryable
}

// NewLineRepository creates a new line repository
func NewLineRepository(db *database.DB) *LineRepository {
	return &LineRepository{q: db.Pool}
}

// newLineRepositoryWithTx creates a new line repository with a transaction
func newLineRepositoryWithTx(tx queryable) *LineRepository {
	return &LineRepository{q: tx}
}

// Upsert creates a line or refreshes the mutable fields of an existing one.
// Line identity is (external_game_id, sportsbook, market); odds, point,
// start time and active flag are refreshed on every feed delivery.
func (r *LineRepository) Upsert(ctx context.Context, line *models.Line) error {
	query := `
		INSERT INTO lines (external_game_id, sport, home_team, away_team, sportsbook, market,
		                   home_odds, away_odds, point, starts_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_game_id, sportsbook, market)
		DO UPDATE SET
			home_odds = EXCLUDED.home_odds,
			away_odds = EXCLUDED.away_odds,
			point = EXCLUDED.point,
			starts_at = EXCLUDED.starts_at,
			active = EXCLUDED.active,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		line.ExternalGameID,
		line.Sport,
		line.HomeTeam,
		line.AwayTeam,
		line.Sportsbook,
		line.Market,
		line.HomeOdds,
		line.AwayOdds,
		line.Point,
		line.StartsAt,
		line.Active,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert line: %w", err)
	}

	return nil
}

// GetByID retrieves a line by its ID
func (r *LineRepository) GetByID(ctx context.Context, lineID int64) (*models.Line, error) {
	query := `
		SELECT id, external_game_id, sport, home_team, away_team, sportsbook, market,
		       home_odds, away_odds, point, starts_at, active, created_at, updated_at
		FROM lines
		WHERE id = $1
	`

	var line models.Line
	err := r.q.QueryRow(ctx, query, lineID).Scan(
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
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get line %d: %w", lineID, err)
	}

	return &line, nil
}

// GetActive returns all lines currently open for swiping
func (r *LineRepository) GetActive(ctx context.Context) ([]*models.Line, error) {
	query := `
		SELECT id, external_game_id, sport, home_team, away_team, sportsbook, market,
		       home_odds, away_odds, point, starts_at, active, created_at, updated_at
		FROM lines
		WHERE active
		ORDER BY starts_at ASC NULLS LAST, id ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.Line
	for rows.Next() {
		var line models.Line
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
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lines: %w", err)
	}

	return lines, nil
}
