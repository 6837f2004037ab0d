package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"lineswipe/config"
	"lineswipe/models"
	"lineswipe/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serverMocks struct {
	swipes   *MockSwipeService
	quotas   *MockQuotaService
	insights *MockInsightService
	lines    *MockLineService
}

func newTestServer() (*Server, *serverMocks) {
	mocks := &serverMocks{
		swipes:   new(MockSwipeService),
		quotas:   new(MockQuotaService),
		insights: new(MockInsightService),
		lines:    new(MockLineService),
	}
	server := NewServer(config.Get(), mocks.swipes, mocks.quotas, mocks.insights, mocks.lines)
	return server, mocks
}

// authedRequest builds a request carrying a valid bearer token for userID
func authedRequest(t *testing.T, method, target string, body any, userID int64) *http.Request {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+makeToken(t, "test-secret", strconv.FormatInt(userID, 10)))
	return req
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestRecordSwipe_Created(t *testing.T) {
	server, mocks := newTestServer()

	// Setup mocks
	mocks.swipes.On("RecordSwipe", mock.Anything, int64(42), int64(7), models.SwipeDirectionConfident, models.SwipeStatusBias, (*string)(nil), "feed").
		Return(&models.Swipe{
			ID:           99,
			UserID:       42,
			LineID:       7,
			Direction:    models.SwipeDirectionConfident,
			Status:       models.SwipeStatusBias,
			OriginScreen: "feed",
		}, nil)

	// Execute
	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:       7,
		Direction:    "confident",
		Status:       "bias",
		OriginScreen: "feed",
	}, 42)
	w := serve(server, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp swipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(99), resp.ID)
	assert.Equal(t, int64(7), resp.LineID)
	assert.Equal(t, "confident", resp.Direction)
	assert.Equal(t, "bias", resp.Status)

	mocks.swipes.AssertExpectations(t)
}

func TestRecordSwipe_CartScreenCarriesBook(t *testing.T) {
	server, mocks := newTestServer()

	book := "fanduel"
	mocks.swipes.On("RecordSwipe", mock.Anything, int64(42), int64(7), models.SwipeDirectionDoubt, models.SwipeStatus(""), &book, "cart").
		Return(&models.Swipe{ID: 100, UserID: 42, LineID: 7, Direction: models.SwipeDirectionDoubt, Status: models.SwipeStatusBias, CartBook: &book, OriginScreen: "cart"}, nil)

	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:       7,
		Direction:    "doubt",
		CartBook:     &book,
		OriginScreen: "cart",
	}, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp swipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.CartBook)
	assert.Equal(t, "fanduel", *resp.CartBook)

	mocks.swipes.AssertExpectations(t)
}

func TestRecordSwipe_InvalidDirection(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:    7,
		Direction: "sideways",
	}, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "direction")
	mocks.swipes.AssertNotCalled(t, "RecordSwipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordSwipe_MissingLineID(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		Direction: "confident",
	}, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "line_id")
	mocks.swipes.AssertNotCalled(t, "RecordSwipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordSwipe_LineNotFound(t *testing.T) {
	server, mocks := newTestServer()

	mocks.swipes.On("RecordSwipe", mock.Anything, int64(42), int64(7), models.SwipeDirectionConfident, models.SwipeStatus(""), (*string)(nil), "").
		Return(nil, service.ErrLineNotFound)

	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:    7,
		Direction: "confident",
	}, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "line not found")
}

func TestRecordSwipe_QuotaExceeded(t *testing.T) {
	server, mocks := newTestServer()

	resetAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Setup mocks
	mocks.swipes.On("RecordSwipe", mock.Anything, int64(42), int64(7), models.SwipeDirectionConfident, models.SwipeStatus(""), (*string)(nil), "").
		Return(nil, service.ErrQuotaExceeded)
	mocks.quotas.On("GetQuota", mock.Anything, int64(42)).
		Return(&models.QuotaStatus{Tier: models.QuotaTierFree, SwipesUsed: 20, Limit: 20, ResetAt: resetAt}, nil)

	// Execute
	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:    7,
		Direction: "confident",
	}, 42)
	w := serve(server, req)

	// Assert
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp quotaExceededResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "quota")
	assert.True(t, resetAt.Equal(resp.ResetAt))

	mocks.quotas.AssertExpectations(t)
}

func TestRecordSwipe_ConflictAfterRetries(t *testing.T) {
	server, mocks := newTestServer()

	mocks.swipes.On("RecordSwipe", mock.Anything, int64(42), int64(7), models.SwipeDirectionConfident, models.SwipeStatus(""), (*string)(nil), "").
		Return(nil, fmt.Errorf("admission retries exhausted: %w", service.ErrConflict))

	req := authedRequest(t, "POST", "/api/v1/swipes", recordSwipeRequest{
		LineID:    7,
		Direction: "confident",
	}, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecordSwipe_Unauthenticated(t *testing.T) {
	server, mocks := newTestServer()

	payload, err := json.Marshal(recordSwipeRequest{LineID: 7, Direction: "confident"})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/swipes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := serve(server, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mocks.swipes.AssertNotCalled(t, "RecordSwipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveSwipe_NoContent(t *testing.T) {
	server, mocks := newTestServer()

	mocks.swipes.On("RemoveSwipe", mock.Anything, int64(42), int64(7)).Return(nil)

	req := authedRequest(t, "DELETE", "/api/v1/swipes/7", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mocks.swipes.AssertExpectations(t)
}

func TestRemoveSwipe_NotFound(t *testing.T) {
	server, mocks := newTestServer()

	mocks.swipes.On("RemoveSwipe", mock.Anything, int64(42), int64(7)).Return(service.ErrSwipeNotFound)

	req := authedRequest(t, "DELETE", "/api/v1/swipes/7", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveSwipe_BadLineID(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "DELETE", "/api/v1/swipes/abc", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.swipes.AssertNotCalled(t, "RemoveSwipe", mock.Anything, mock.Anything, mock.Anything)
}

func TestListSwipes_FiltersByStatus(t *testing.T) {
	server, mocks := newTestServer()

	mocks.swipes.On("ListSwipes", mock.Anything, int64(42), models.SwipeStatusLocks).
		Return([]*models.Swipe{
			{ID: 1, UserID: 42, LineID: 7, Direction: models.SwipeDirectionConfident, Status: models.SwipeStatusLocks},
			{ID: 2, UserID: 42, LineID: 8, Direction: models.SwipeDirectionDoubt, Status: models.SwipeStatusLocks},
		}, nil)

	req := authedRequest(t, "GET", "/api/v1/swipes?status=locks", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []swipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
	assert.Equal(t, "locks", resp[0].Status)

	mocks.swipes.AssertExpectations(t)
}

func TestListSwipes_InvalidStatus(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "GET", "/api/v1/swipes?status=someday", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.swipes.AssertNotCalled(t, "ListSwipes", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetQuota_OK(t *testing.T) {
	server, mocks := newTestServer()

	resetAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mocks.quotas.On("GetQuota", mock.Anything, int64(42)).
		Return(&models.QuotaStatus{
			Tier:       models.QuotaTierPlus,
			SwipesUsed: 37,
			Limit:      100,
			Remaining:  63,
			ResetAt:    resetAt,
		}, nil)

	req := authedRequest(t, "GET", "/api/v1/quota", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp quotaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PLUS", resp.Tier)
	assert.Equal(t, 37, resp.SwipesUsed)
	assert.Equal(t, 63, resp.Remaining)
	assert.False(t, resp.Unlimited)
}

func TestListLines_OK(t *testing.T) {
	server, mocks := newTestServer()

	point := -3.5
	mocks.lines.On("ListActiveLines", mock.Anything).
		Return([]*models.Line{
			{ID: 1, ExternalGameID: "nba-1", Sport: "basketball_nba", HomeTeam: "Celtics", AwayTeam: "Lakers", Sportsbook: "draftkings", Market: "spreads", HomeOdds: -110, AwayOdds: -108, Point: &point, Active: true},
		}, nil)

	req := authedRequest(t, "GET", "/api/v1/lines", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []lineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "draftkings", resp[0].Sportsbook)
	require.NotNil(t, resp[0].Point)
	assert.InDelta(t, -3.5, *resp[0].Point, 0.001)
}

func TestGetLineAggregate_OK(t *testing.T) {
	server, mocks := newTestServer()

	mocks.insights.On("GetLineAggregate", mock.Anything, int64(42), int64(7)).
		Return(&models.LineAggregate{LineID: 7, ConfidentCount: 37, DoubtCount: 14}, nil)

	req := authedRequest(t, "GET", "/api/v1/lines/7/aggregate", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp aggregateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.LineID)
	assert.Equal(t, 37, resp.ConfidentCount)
	assert.Equal(t, 14, resp.DoubtCount)
	assert.Equal(t, 51, resp.Total)
	assert.Equal(t, 72, resp.ConfidentPercent)
	assert.Equal(t, "confident", resp.Lean)
}

func TestGetLineAggregate_Locked(t *testing.T) {
	server, mocks := newTestServer()

	mocks.insights.On("GetLineAggregate", mock.Anything, int64(42), int64(7)).
		Return(nil, service.ErrForbidden)

	req := authedRequest(t, "GET", "/api/v1/lines/7/aggregate", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "locked")
}

func TestGetLineAggregate_UnknownLine(t *testing.T) {
	server, mocks := newTestServer()

	mocks.insights.On("GetLineAggregate", mock.Anything, int64(42), int64(999)).
		Return(nil, service.ErrLineNotFound)

	req := authedRequest(t, "GET", "/api/v1/lines/999/aggregate", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLineSnapshots_ParsesWindow(t *testing.T) {
	server, mocks := newTestServer()

	day := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	point := -3.5
	mocks.insights.On("ListLineSnapshots", mock.Anything, int64(42), int64(7),
		mock.MatchedBy(func(from *time.Time) bool {
			return from != nil && from.Equal(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
		}),
		mock.MatchedBy(func(to *time.Time) bool {
			return to != nil && to.Equal(time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC))
		})).
		Return([]*models.LineSnapshot{
			{ID: 1, LineID: 7, SnapshotDate: day, HomeOdds: -110, AwayOdds: -108, Point: &point, ConfidentCount: 4, DoubtCount: 2},
		}, nil)

	req := authedRequest(t, "GET", "/api/v1/lines/7/snapshots?from=2026-02-10&to=2026-02-12", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []snapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "2026-02-11", resp[0].SnapshotDate)
	assert.Equal(t, 4, resp[0].ConfidentCount)

	mocks.insights.AssertExpectations(t)
}

func TestListLineSnapshots_BadDate(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "GET", "/api/v1/lines/7/snapshots?from=yesterday", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
	mocks.insights.AssertNotCalled(t, "ListLineSnapshots", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTrendingLines_PassesLimit(t *testing.T) {
	server, mocks := newTestServer()

	mocks.insights.On("GetTrendingLines", mock.Anything, int64(42), 25).
		Return([]*models.TrendingLine{
			{Line: &models.Line{ID: 1, HomeTeam: "Celtics", AwayTeam: "Lakers", Active: true}, ConfidentCount: 9, DoubtCount: 3},
		}, nil)

	req := authedRequest(t, "GET", "/api/v1/lines/trending?limit=25", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []trendingLineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 12, resp[0].Total)

	mocks.insights.AssertExpectations(t)
}

func TestGetTrendingLines_DefaultLimit(t *testing.T) {
	server, mocks := newTestServer()

	mocks.insights.On("GetTrendingLines", mock.Anything, int64(42), 0).
		Return([]*models.TrendingLine{}, nil)

	req := authedRequest(t, "GET", "/api/v1/lines/trending", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.insights.AssertExpectations(t)
}

func TestGetTrendingLines_BadLimit(t *testing.T) {
	server, mocks := newTestServer()

	req := authedRequest(t, "GET", "/api/v1/lines/trending?limit=lots", nil, 42)
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.insights.AssertNotCalled(t, "GetTrendingLines", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsertLine_Ingest(t *testing.T) {
	server, mocks := newTestServer()

	// Setup mocks
	mocks.lines.On("UpsertLine", mock.Anything, mock.MatchedBy(func(line *models.Line) bool {
		return line.ExternalGameID == "nba-2026-02-11-lal-bos" &&
			line.Sportsbook == "draftkings" &&
			line.Market == "spreads" &&
			line.Active
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Line).ID = 55
	}).Return(nil)

	// Execute
	payload, err := json.Marshal(upsertLineRequest{
		ExternalGameID: "nba-2026-02-11-lal-bos",
		Sport:          "basketball_nba",
		HomeTeam:       "Celtics",
		AwayTeam:       "Lakers",
		Sportsbook:     "draftkings",
		Market:         "spreads",
		HomeOdds:       -110,
		AwayOdds:       -108,
	})
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/internal/v1/lines", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ingest-Token", "test-ingest-token")
	w := serve(server, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var resp lineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(55), resp.ID)
	assert.True(t, resp.Active)

	mocks.lines.AssertExpectations(t)
}

func TestUpsertLine_BadToken(t *testing.T) {
	server, mocks := newTestServer()

	payload, err := json.Marshal(upsertLineRequest{ExternalGameID: "nba-1", Sportsbook: "draftkings", Market: "spreads", HomeTeam: "Celtics", AwayTeam: "Lakers"})
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/internal/v1/lines", bytes.NewReader(payload))
	req.Header.Set("X-Ingest-Token", "wrong")
	w := serve(server, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mocks.lines.AssertNotCalled(t, "UpsertLine", mock.Anything, mock.Anything)
}

func TestUpsertLine_MissingIdentity(t *testing.T) {
	server, mocks := newTestServer()

	payload, err := json.Marshal(upsertLineRequest{Sport: "basketball_nba", HomeTeam: "Celtics", AwayTeam: "Lakers"})
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/internal/v1/lines", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ingest-Token", "test-ingest-token")
	w := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.lines.AssertNotCalled(t, "UpsertLine", mock.Anything, mock.Anything)
}

func TestUpsertLine_RespectsInactiveFlag(t *testing.T) {
	server, mocks := newTestServer()

	inactive := false
	mocks.lines.On("UpsertLine", mock.Anything, mock.MatchedBy(func(line *models.Line) bool {
		return !line.Active
	})).Return(nil)

	payload, err := json.Marshal(upsertLineRequest{
		ExternalGameID: "nba-1",
		Sportsbook:     "draftkings",
		Market:         "spreads",
		HomeTeam:       "Celtics",
		AwayTeam:       "Lakers",
		Active:         &inactive,
	})
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/internal/v1/lines", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ingest-Token", "test-ingest-token")
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.lines.AssertExpectations(t)
}
