// Package api serves rankings and price trends to the dashboard.
package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phone-tracker/models"
	"phone-tracker/services"
	"phone-tracker/storage"
	"phone-tracker/utils"
)

// Server exposes the scorer over HTTP so weights can be changed per request.
type Server struct {
	store          storage.ListingReader
	insights       *services.InsightService
	logger         *utils.Logger
	defaultWeights models.Weights
	windowDays     int
	now            func() time.Time
}

// NewServer creates a Server reading listings from store.
func NewServer(store storage.ListingReader, insights *services.InsightService, logger *utils.Logger,
	defaultWeights models.Weights, windowDays int) *Server {
	return &Server{
		store:          store,
		insights:       insights,
		logger:         logger,
		defaultWeights: defaultWeights,
		windowDays:     windowDays,
		now:            time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/rankings", s.rankings)
	api.GET("/trends", s.trends)
	api.GET("/trends/relative", s.relativeTrends)
	return r
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("[api] Listening on %s", addr)
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/rankings?price=&battery=&storage=&sentiment=&limit=&days=
func (s *Server) rankings(c *gin.Context) {
	weights := models.Weights{
		Price:     queryFloat(c, "price", s.defaultWeights.Price),
		Battery:   queryFloat(c, "battery", s.defaultWeights.Battery),
		Storage:   queryFloat(c, "storage", s.defaultWeights.Storage),
		Sentiment: queryFloat(c, "sentiment", s.defaultWeights.Sentiment),
	}
	limit := queryInt(c, "limit", services.BestListingCount)
	days := queryInt(c, "days", s.windowDays)

	now := s.now()
	var (
		listings []*models.Listing
		err      error
	)
	if days > 0 {
		listings, err = s.store.FetchSince(c.Request.Context(), now.AddDate(0, 0, -days))
	} else {
		listings, err = s.store.FetchAll(c.Request.Context())
	}
	if err != nil {
		s.logger.Error("[api] rankings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	best := s.insights.Best(listings, weights, now, days, limit)
	c.JSON(http.StatusOK, gin.H{
		"weights":    weights,
		"normalized": services.Softmax(weights),
		"candidates": len(listings),
		"listings":   best,
	})
}

// GET /api/trends
func (s *Server) trends(c *gin.Context) {
	listings, err := s.store.FetchAll(c.Request.Context())
	if err != nil {
		s.logger.Error("[api] trends: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, services.PriceTrend(listings))
}

// GET /api/trends/relative
func (s *Server) relativeTrends(c *gin.Context) {
	listings, err := s.store.FetchAll(c.Request.Context())
	if err != nil {
		s.logger.Error("[api] relative trends: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.insights.RetailGaps(services.PriceTrend(listings)))
}

// queryFloat reads a finite float query parameter, falling back on absence
// or garbage.
func queryFloat(c *gin.Context, key string, fallback float64) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return fallback
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
