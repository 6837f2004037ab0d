package models

import (
	"time"
)

// LineAggregate holds the running community tallies for a single line.
// The counts always equal the sums over the swipe records for the line.
type LineAggregate struct {
	LineID         int64     `db:"line_id"`
	ConfidentCount int       `db:"confident_count"`
	DoubtCount     int       `db:"doubt_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Total returns the combined swipe count for the line
func (a *LineAggregate) Total() int {
	return a.ConfidentCount + a.DoubtCount
}

// ConfidentPercent returns the confident share of all swipes (0-100).
// Returns 0 when the line has no swipes.
func (a *LineAggregate) ConfidentPercent() int {
	total := a.Total()
	if total == 0 {
		return 0
	}
	return a.ConfidentCount * 100 / total
}

// Lean returns the direction the community currently favors.
// Returns empty string when tied or empty.
func (a *LineAggregate) Lean() SwipeDirection {
	if a.ConfidentCount > a.DoubtCount {
		return SwipeDirectionConfident
	}
	if a.DoubtCount > a.ConfidentCount {
		return SwipeDirectionDoubt
	}
	return ""
}

// TrendingLine pairs a line with its tallies for ranked listings
type TrendingLine struct {
	Line           *Line
	ConfidentCount int
	DoubtCount     int
}

// SwipeDelta computes the tally adjustment for a swipe transition. Pass an
// empty from for a first swipe and an empty to for a removal; a direction
// change yields the compensating pair so both counts move in one step.
func SwipeDelta(from, to SwipeDirection) (confidentDelta, doubtDelta int) {
	if from == to {
		return 0, 0
	}
	switch from {
	case SwipeDirectionConfident:
		confidentDelta--
	case SwipeDirectionDoubt:
		doubtDelta--
	}
	switch to {
	case SwipeDirectionConfident:
		confidentDelta++
	case SwipeDirectionDoubt:
		doubtDelta++
	}
	return confidentDelta, doubtDelta
}
