package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lineswipe/config"
	"lineswipe/metrics"
	"lineswipe/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server is the user-facing HTTP surface: swipes, quota and insights for
// authenticated users plus the token-guarded internal feed route.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	http     *http.Server
	swipes   service.SwipeService
	quotas   service.QuotaService
	insights service.InsightService
	lines    service.LineService
}

// NewServer wires the routes onto a gin engine. Nothing listens until Start.
func NewServer(cfg *config.Config, swipes service.SwipeService, quotas service.QuotaService, insights service.InsightService, lines service.LineService) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), observeRequests())

	s := &Server{
		cfg:      cfg,
		router:   router,
		swipes:   swipes,
		quotas:   quotas,
		insights: insights,
		lines:    lines,
	}
	s.registerRoutes()

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	return s
}

func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")
	v1.Use(authRequired(s.cfg.JWTSecret))
	{
		v1.POST("/swipes", s.recordSwipe)
		v1.DELETE("/swipes/:lineID", s.removeSwipe)
		v1.GET("/swipes", s.listSwipes)
		v1.GET("/quota", s.getQuota)
		v1.GET("/lines", s.listLines)
		v1.GET("/lines/trending", s.getTrendingLines)
		v1.GET("/lines/:lineID/aggregate", s.getLineAggregate)
		v1.GET("/lines/:lineID/snapshots", s.listLineSnapshots)
	}

	internal := s.router.Group("/internal/v1")
	internal.Use(ingestAuth(s.cfg.IngestToken))
	{
		internal.PUT("/lines", s.upsertLine)
	}
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown or failure
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"addr": s.http.Addr,
	}).Info("API server listening")

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// observeRequests feeds the request counters and emits one log line per
// request. Routes are labeled by pattern, not raw path, to keep metric
// cardinality bounded.
func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())

		entry := log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request completed")
		} else {
			entry.Debug("Request completed")
		}
	}
}
