package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lineswipe/metrics"
	"lineswipe/models"
	"lineswipe/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (s *Server) recordSwipe(c *gin.Context) {
	var req recordSwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.LineID <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "line_id is required"})
		return
	}
	direction := models.SwipeDirection(req.Direction)
	if !direction.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "direction must be confident or doubt"})
		return
	}
	status := models.SwipeStatus(req.Status)
	if req.Status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "status must be bias, locks or archive"})
		return
	}

	userID := currentUserID(c)
	swipe, err := s.swipes.RecordSwipe(c.Request.Context(), userID, req.LineID, direction, status, req.CartBook, req.OriginScreen)
	if err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			metrics.QuotaDenials.Inc()
			s.respondQuotaExceeded(c, userID)
			return
		}
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSwipeResponse(swipe))
}

func (s *Server) removeSwipe(c *gin.Context) {
	lineID, ok := pathLineID(c)
	if !ok {
		return
	}

	if err := s.swipes.RemoveSwipe(c.Request.Context(), currentUserID(c), lineID); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) listSwipes(c *gin.Context) {
	status := models.SwipeStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "status must be bias, locks or archive"})
		return
	}

	swipes, err := s.swipes.ListSwipes(c.Request.Context(), currentUserID(c), status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSwipeResponses(swipes))
}

func (s *Server) getQuota(c *gin.Context) {
	quota, err := s.quotas.GetQuota(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuotaResponse(quota))
}

func (s *Server) listLines(c *gin.Context) {
	lines, err := s.lines.ListActiveLines(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLineResponses(lines))
}

func (s *Server) getLineAggregate(c *gin.Context) {
	lineID, ok := pathLineID(c)
	if !ok {
		return
	}

	agg, err := s.insights.GetLineAggregate(c.Request.Context(), currentUserID(c), lineID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAggregateResponse(agg))
}

func (s *Server) listLineSnapshots(c *gin.Context) {
	lineID, ok := pathLineID(c)
	if !ok {
		return
	}

	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	snapshots, err := s.insights.ListLineSnapshots(c.Request.Context(), currentUserID(c), lineID, from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSnapshotResponses(snapshots))
}

func (s *Server) getTrendingLines(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a number"})
			return
		}
		limit = parsed
	}

	trending, err := s.insights.GetTrendingLines(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTrendingLineResponses(trending))
}

func (s *Server) upsertLine(c *gin.Context) {
	var req upsertLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.ExternalGameID == "" || req.Sportsbook == "" || req.Market == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "external_game_id, sportsbook and market are required"})
		return
	}
	if req.HomeTeam == "" || req.AwayTeam == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "home_team and away_team are required"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	line := &models.Line{
		ExternalGameID: req.ExternalGameID,
		Sport:          req.Sport,
		HomeTeam:       req.HomeTeam,
		AwayTeam:       req.AwayTeam,
		Sportsbook:     req.Sportsbook,
		Market:         req.Market,
		HomeOdds:       req.HomeOdds,
		AwayOdds:       req.AwayOdds,
		Point:          req.Point,
		StartsAt:       req.StartsAt,
		Active:         active,
	}

	if err := s.lines.UpsertLine(c.Request.Context(), line); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLineResponse(line))
}

// respondQuotaExceeded builds the 429 body with the period boundary so the
// client can tell the user when swipes come back
func (s *Server) respondQuotaExceeded(c *gin.Context, userID int64) {
	body := quotaExceededResponse{Error: service.ErrQuotaExceeded.Error()}
	if quota, err := s.quotas.GetQuota(c.Request.Context(), userID); err == nil {
		body.ResetAt = quota.ResetAt
	}
	c.JSON(http.StatusTooManyRequests, body)
}

// respondError maps domain outcomes to statuses; anything unmapped is an
// internal failure that gets logged and hidden behind a generic body
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLineNotFound), errors.Is(err, service.ErrSwipeNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrQuotaExceeded):
		metrics.QuotaDenials.Inc()
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		metrics.AdmissionConflicts.Inc()
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// pathLineID parses the :lineID path segment, writing the 400 itself
func pathLineID(c *gin.Context) (int64, bool) {
	lineID, err := strconv.ParseInt(c.Param("lineID"), 10, 64)
	if err != nil || lineID <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid line id"})
		return 0, false
	}
	return lineID, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &parsed, true
}
