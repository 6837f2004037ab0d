package models

import (
	"time"
)

// SwipeDirection represents which way a user swiped on a line
type SwipeDirection string

const (
	SwipeDirectionConfident SwipeDirection = "confident"
	SwipeDirectionDoubt     SwipeDirection = "doubt"
)

// IsValid checks that the direction is one of the known values
func (d SwipeDirection) IsValid() bool {
	return d == SwipeDirectionConfident || d == SwipeDirectionDoubt
}

// Opposite returns the other direction
func (d SwipeDirection) Opposite() SwipeDirection {
	if d == SwipeDirectionConfident {
		return SwipeDirectionDoubt
	}
	return SwipeDirectionConfident
}

// SwipeStatus represents where a swipe lives in the user's pick lists
type SwipeStatus string

const (
	SwipeStatusBias    SwipeStatus = "bias"
	SwipeStatusLocks   SwipeStatus = "locks"
	SwipeStatusArchive SwipeStatus = "archive"
)

// IsValid checks that the status is one of the known values
func (s SwipeStatus) IsValid() bool {
	return s == SwipeStatusBias || s == SwipeStatusLocks || s == SwipeStatusArchive
}

// Swipe represents a user's current stance on a line. There is exactly one
// swipe per (user, line); swiping again updates the existing record.
type Swipe struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	LineID       int64          `db:"line_id"`
	Direction    SwipeDirection `db:"direction"`
	Status       SwipeStatus    `db:"status"`
	CartBook     *string        `db:"cart_book"`
	OriginScreen string         `db:"origin_screen"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsConfident checks if the swipe backs the line
func (s *Swipe) IsConfident() bool {
	return s.Direction == SwipeDirectionConfident
}

// IsArchived checks if the swipe has been moved out of the active lists
func (s *Swipe) IsArchived() bool {
	return s.Status == SwipeStatusArchive
}
