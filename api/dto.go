package api

import (
	"time"

	"lineswipe/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

// quotaExceededResponse tells the client when their allowance comes back
type quotaExceededResponse struct {
	Error   string    `json:"error"`
	ResetAt time.Time `json:"reset_at"`
}

type recordSwipeRequest struct {
	LineID       int64   `json:"line_id"`
	Direction    string  `json:"direction"` // "confident" | "doubt"
	Status       string  `json:"status"`    // "bias" | "locks" | "archive", defaults to bias
	CartBook     *string `json:"cart_book"`
	OriginScreen string  `json:"origin_screen"`
}

type upsertLineRequest struct {
	ExternalGameID string     `json:"external_game_id"`
	Sport          string     `json:"sport"`
	HomeTeam       string     `json:"home_team"`
	AwayTeam       string     `json:"away_team"`
	Sportsbook     string     `json:"sportsbook"`
	Market         string     `json:"market"`
	HomeOdds       int        `json:"home_odds"`
	AwayOdds       int        `json:"away_odds"`
	Point          *float64   `json:"point"`
	StartsAt       *time.Time `json:"starts_at"`
	Active         *bool      `json:"active"` // omitted means open for swiping
}

type swipeResponse struct {
	ID           int64     `json:"id"`
	LineID       int64     `json:"line_id"`
	Direction    string    `json:"direction"`
	Status       string    `json:"status"`
	CartBook     *string   `json:"cart_book,omitempty"`
	OriginScreen string    `json:"origin_screen"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type lineResponse struct {
	ID             int64      `json:"id"`
	ExternalGameID string     `json:"external_game_id"`
	Sport          string     `json:"sport"`
	HomeTeam       string     `json:"home_team"`
	AwayTeam       string     `json:"away_team"`
	Sportsbook     string     `json:"sportsbook"`
	Market         string     `json:"market"`
	HomeOdds       int        `json:"home_odds"`
	AwayOdds       int        `json:"away_odds"`
	Point          *float64   `json:"point,omitempty"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	Active         bool       `json:"active"`
}

type aggregateResponse struct {
	LineID           int64  `json:"line_id"`
	ConfidentCount   int    `json:"confident_count"`
	DoubtCount       int    `json:"doubt_count"`
	Total            int    `json:"total"`
	ConfidentPercent int    `json:"confident_percent"`
	Lean             string `json:"lean,omitempty"` // empty when tied
}

type snapshotResponse struct {
	LineID         int64    `json:"line_id"`
	SnapshotDate   string   `json:"snapshot_date"` // YYYY-MM-DD
	HomeOdds       int      `json:"home_odds"`
	AwayOdds       int      `json:"away_odds"`
	Point          *float64 `json:"point,omitempty"`
	ConfidentCount int      `json:"confident_count"`
	DoubtCount     int      `json:"doubt_count"`
}

type quotaResponse struct {
	Tier       string    `json:"tier"`
	SwipesUsed int       `json:"swipes_used"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	Unlimited  bool      `json:"unlimited"`
	ResetAt    time.Time `json:"reset_at"`
}

type trendingLineResponse struct {
	Line           lineResponse `json:"line"`
	ConfidentCount int          `json:"confident_count"`
	DoubtCount     int          `json:"doubt_count"`
	Total          int          `json:"total"`
}

func toSwipeResponse(s *models.Swipe) swipeResponse {
	return swipeResponse{
		ID:           s.ID,
		LineID:       s.LineID,
		Direction:    string(s.Direction),
		Status:       string(s.Status),
		CartBook:     s.CartBook,
		OriginScreen: s.OriginScreen,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toSwipeResponses(swipes []*models.Swipe) []swipeResponse {
	out := make([]swipeResponse, 0, len(swipes))
	for _, s := range swipes {
		out = append(out, toSwipeResponse(s))
	}
	return out
}

func toLineResponse(l *models.Line) lineResponse {
	return lineResponse{
		ID:             l.ID,
		ExternalGameID: l.ExternalGameID,
		Sport:          l.Sport,
		HomeTeam:       l.HomeTeam,
		AwayTeam:       l.AwayTeam,
		Sportsbook:     l.Sportsbook,
		Market:         l.Market,
		HomeOdds:       l.HomeOdds,
		AwayOdds:       l.AwayOdds,
		Point:          l.Point,
		StartsAt:       l.StartsAt,
		Active:         l.Active,
	}
}

func toLineResponses(lines []*models.Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineResponse(l))
	}
	return out
}

func toAggregateResponse(a *models.LineAggregate) aggregateResponse {
	return aggregateResponse{
		LineID:           a.LineID,
		ConfidentCount:   a.ConfidentCount,
		DoubtCount:       a.DoubtCount,
		Total:            a.Total(),
		ConfidentPercent: a.ConfidentPercent(),
		Lean:             string(a.Lean()),
	}
}

func toSnapshotResponses(snapshots []*models.LineSnapshot) []snapshotResponse {
	out := make([]snapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, snapshotResponse{
			LineID:         s.LineID,
			SnapshotDate:   s.SnapshotDate.Format("2006-01-02"),
			HomeOdds:       s.HomeOdds,
			AwayOdds:       s.AwayOdds,
			Point:          s.Point,
			ConfidentCount: s.ConfidentCount,
			DoubtCount:     s.DoubtCount,
		})
	}
	return out
}

func toQuotaResponse(q *models.QuotaStatus) quotaResponse {
	return quotaResponse{
		Tier:       string(q.Tier),
		SwipesUsed: q.SwipesUsed,
		Limit:      q.Limit,
		Remaining:  q.Remaining,
		Unlimited:  q.Unlimited,
		ResetAt:    q.ResetAt,
	}
}

func toTrendingLineResponses(trending []*models.TrendingLine) []trendingLineResponse {
	out := make([]trendingLineResponse, 0, len(trending))
	for _, tl := range trending {
		out = append(out, trendingLineResponse{
			Line:           toLineResponse(tl.Line),
			ConfidentCount: tl.ConfidentCount,
			DoubtCount:     tl.DoubtCount,
			Total:          tl.ConfidentCount + tl.DoubtCount,
		})
	}
	return out
}
