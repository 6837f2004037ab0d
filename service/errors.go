package service

import (
	"errors"
)

// Domain outcomes callers are expected to branch on. Everything else a
// service returns is an internal failure.
var (
	// ErrLineNotFound is returned when the referenced line does not exist
	ErrLineNotFound = errors.New("line not found")

	// ErrSwipeNotFound is returned when the user has no swipe on the line
	ErrSwipeNotFound = errors.New("swipe not found")

	// ErrQuotaExceeded is returned when a first-time swipe would exceed the
	// user's allowance for the current period
	ErrQuotaExceeded = errors.New("swipe quota exceeded")

	// ErrForbidden is returned when a user who has not unlocked community
	// data requests aggregates or snapshots
	ErrForbidden = errors.New("insight access locked")

	// ErrConflict is returned when concurrent admissions kept colliding
	// after internal retries
	ErrConflict = errors.New("concurrent admission conflict")
)
