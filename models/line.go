package models

import (
	"time"
)

// Line represents a single betting line offered by a sportsbook
type Line struct {
	ID             int64      `db:"id"`
	ExternalGameID string     `db:"external_game_id"`
	Sport          string     `db:"sport"`
	HomeTeam       string     `db:"home_team"`
	AwayTeam       string     `db:"away_team"`
	Sportsbook     string     `db:"sportsbook"`
	Market         string     `db:"market"`
	HomeOdds       int        `db:"home_odds"`
	AwayOdds       int        `db:"away_odds"`
	Point          *float64   `db:"point"`
	StartsAt       *time.Time `db:"starts_at"`
	Active         bool       `db:"active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// HasStarted checks whether the underlying game has already begun
func (l *Line) HasStarted(now time.Time) bool {
	if l.StartsAt == nil {
		return false
	}
	return now.After(*l.StartsAt)
}

// Matchup returns a human readable "away @ home" label for the line
func (l *Line) Matchup() string {
	return l.AwayTeam + " @ " + l.HomeTeam
}
