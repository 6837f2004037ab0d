package models

import (
	"time"
)

// QuotaTier represents a user's subscription tier
type QuotaTier string

const (
	QuotaTierFree  QuotaTier = "FREE"
	QuotaTierPlus  QuotaTier = "PLUS"
	QuotaTierPro   QuotaTier = "PRO"
	QuotaTierElite QuotaTier = "ELITE"
)

// IsValid checks that the tier is one of the known values
func (t QuotaTier) IsValid() bool {
	switch t {
	case QuotaTierFree, QuotaTierPlus, QuotaTierPro, QuotaTierElite:
		return true
	}
	return false
}

// QuotaPeriod is the length of one rolling quota window
const QuotaPeriod = 30 * 24 * time.Hour

// TierLimits maps the limited tiers to their swipe allowance per period
type TierLimits struct {
	Free int
	Plus int
	Pro  int
}

// For returns the allowance for a tier. limited is false for tiers with no
// cap, in which case limit is meaningless.
func (tl TierLimits) For(tier QuotaTier) (limit int, limited bool) {
	switch tier {
	case QuotaTierFree:
		return tl.Free, true
	case QuotaTierPlus:
		return tl.Plus, true
	case QuotaTierPro:
		return tl.Pro, true
	case QuotaTierElite:
		return 0, false
	default:
		// Unknown tiers get the most restrictive allowance
		return tl.Free, true
	}
}

// QuotaStatus is the user-facing view of a quota: consumption plus the
// allowance implied by the tier
type QuotaStatus struct {
	Tier       QuotaTier
	SwipesUsed int
	Limit      int
	Remaining  int
	Unlimited  bool
	ResetAt    time.Time
}

// UserQuota tracks a user's swipe consumption within the current period
type UserQuota struct {
	UserID     int64     `db:"user_id"`
	Tier       QuotaTier `db:"tier"`
	SwipesUsed int       `db:"swipes_used"`
	ResetAt    time.Time `db:"reset_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// NeedsReset checks whether the current period has elapsed
func (q *UserQuota) NeedsReset(now time.Time) bool {
	return !now.Before(q.ResetAt)
}

// Reset starts a fresh period from now. The reset is lazy: it runs on the
// first access after expiry rather than on a schedule, so the new window
// anchors to the access time.
func (q *UserQuota) Reset(now time.Time) {
	q.SwipesUsed = 0
	q.ResetAt = now.Add(QuotaPeriod)
}

// Exhausted checks whether the user has consumed their full allowance
func (q *UserQuota) Exhausted(limits TierLimits) bool {
	limit, limited := limits.For(q.Tier)
	if !limited {
		return false
	}
	return q.SwipesUsed >= limit
}

// Remaining returns how many swipes are left in the period. unlimited is
// true for uncapped tiers.
func (q *UserQuota) Remaining(limits TierLimits) (remaining int, unlimited bool) {
	limit, limited := limits.For(q.Tier)
	if !limited {
		return 0, true
	}
	remaining = limit - q.SwipesUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, false
}
