package models

import (
	"time"
)

// LineSnapshot is a frozen end-of-day record of a line's odds and community
// tallies. Snapshots are append only: one row per line per day, never
// updated after capture.
type LineSnapshot struct {
	ID             int64     `db:"id"`
	LineID         int64     `db:"line_id"`
	SnapshotDate   time.Time `db:"snapshot_date"`
	HomeOdds       int       `db:"home_odds"`
	AwayOdds       int       `db:"away_odds"`
	Point          *float64  `db:"point"`
	ConfidentCount int       `db:"confident_count"`
	DoubtCount     int       `db:"doubt_count"`
	CreatedAt      time.Time `db:"created_at"`
}

// Total returns the combined swipe count captured in the snapshot
func (s *LineSnapshot) Total() int {
	return s.ConfidentCount + s.DoubtCount
}

// SnapshotRun summarizes one execution of the daily snapshot job
type SnapshotRun struct {
	RunDate       time.Time
	LinesCaptured int
	LinesSkipped  int
	LinesFailed   int
}
