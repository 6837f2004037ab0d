package testutil

import (
	"fmt"
	"time"

	"lineswipe/models"
)

// CreateTestLine creates a test line with default values. The suffix keeps
// the (game, sportsbook, market) identity unique across calls.
func CreateTestLine(suffix int) *models.Line {
	point := -3.5
	startsAt := time.Now().UTC().Add(6 * time.Hour).Truncate(time.Second)
	return &models.Line{
		ExternalGameID: fmt.Sprintf("nba-2026-02-11-game-%d", suffix),
		Sport:          "basketball_nba",
		HomeTeam:       "Lakers",
		AwayTeam:       "Celtics",
		Sportsbook:     "draftkings",
		Market:         "spreads",
		HomeOdds:       -110,
		AwayOdds:       -108,
		Point:          &point,
		StartsAt:       &startsAt,
		Active:         true,
	}
}

// CreateTestLineForBook creates a test line for a specific sportsbook
func CreateTestLineForBook(suffix int, sportsbook string) *models.Line {
	line := CreateTestLine(suffix)
	line.Sportsbook = sportsbook
	return line
}

// CreateTestSwipe creates a test swipe with default values
func CreateTestSwipe(userID, lineID int64) *models.Swipe {
	return &models.Swipe{
		UserID:       userID,
		LineID:       lineID,
		Direction:    models.SwipeDirectionConfident,
		Status:       models.SwipeStatusBias,
		OriginScreen: "feed",
	}
}

// CreateTestSwipeWithDirection creates a test swipe with a specific direction
func CreateTestSwipeWithDirection(userID, lineID int64, direction models.SwipeDirection) *models.Swipe {
	swipe := CreateTestSwipe(userID, lineID)
	swipe.Direction = direction
	return swipe
}

// CreateTestQuota creates a test quota row with a fresh period
func CreateTestQuota(userID int64, tier models.QuotaTier) *models.UserQuota {
	return &models.UserQuota{
		UserID:  userID,
		Tier:    tier,
		ResetAt: time.Now().UTC().Add(models.QuotaPeriod).Truncate(time.Second),
	}
}

// CreateTestSnapshot creates a test snapshot for a line on a given day
func CreateTestSnapshot(lineID int64, day time.Time) *models.LineSnapshot {
	point := -3.5
	return &models.LineSnapshot{
		LineID:         lineID,
		SnapshotDate:   day,
		HomeOdds:       -110,
		AwayOdds:       -108,
		Point:          &point,
		ConfidentCount: 4,
		DoubtCount:     2,
	}
}
