// Package server exposes the route planner and the saved-location store over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/common/logger"
	"rouvia/internal/common/metrics"
	"rouvia/internal/models"
	savedlocations "rouvia/internal/workers/profile/saved-locations"
	planroute "rouvia/internal/workers/route-planning/plan-route"
	searchcandidates "rouvia/internal/workers/route-planning/search-candidates"

	"github.com/gin-gonic/gin"
)

type RoutePlanner interface {
	Run(ctx context.Context, req planroute.Request) (*models.RouteResponse, error)
}

// ProfileStore is the saved-location surface served under /saved-locations
// and /visited-places. *savedlocations.Store implements it.
type ProfileStore interface {
	SavedLocations(ctx context.Context, userID string) ([]models.SavedLocation, savedlocations.Source, error)
	GetByID(ctx context.Context, userID, id string) (*models.SavedLocation, savedlocations.Source, error)
	Add(ctx context.Context, userID, name, address string) (string, savedlocations.Source, error)
	Update(ctx context.Context, userID, id, name, address string) (bool, savedlocations.Source, error)
	Delete(ctx context.Context, userID, id string) (bool, savedlocations.Source, error)
	RecordVisit(ctx context.Context, userID string, visit models.VisitedPlace) (savedlocations.Source, error)
	Visited(ctx context.Context, userID string) ([]models.VisitedPlace, savedlocations.Source, error)
}

type PlaceSearcher interface {
	Execute(ctx context.Context, input *searchcandidates.Input) (*searchcandidates.Output, error)
}

type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

type Server struct {
	config   Config
	planner  RoutePlanner
	profiles ProfileStore
	search   PlaceSearcher
	logger   logger.Logger
	now      func() time.Time
}

func New(config Config, planner RoutePlanner, profiles ProfileStore, search PlaceSearcher, log logger.Logger) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 25 << 20
	}
	return &Server{
		config:   config,
		planner:  planner,
		profiles: profiles,
		search:   search,
		logger:   log.With(map[string]interface{}{"component": "http"}),
		now:      time.Now,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.config.MaxUploadBytes

	r.GET("/", s.Root)
	r.GET("/api/health", s.Health)

	r.POST("/plan-route-audio", s.PlanRouteAudio)
	r.POST("/plan-route-text", s.PlanRouteText)

	saved := r.Group("/saved-locations/:user_id")
	saved.GET("", s.ListSavedLocations)
	saved.POST("", s.AddSavedLocation)
	saved.GET("/:location_id", s.GetSavedLocation)
	saved.PUT("/:location_id", s.UpdateSavedLocation)
	saved.DELETE("/:location_id", s.DeleteSavedLocation)

	r.GET("/visited-places/:user_id", s.ListVisitedPlaces)
	r.POST("/visited-places/:user_id", s.RecordVisitedPlace)

	r.POST("/debug/places", s.DebugPlaces)

	return r
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + strconv.Itoa(s.config.Port),
		Handler:      s.SetupRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Rouvia API"})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Server is running!",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"status":    "healthy",
	})
}

func (s *Server) DebugPlaces(c *gin.Context) {
	var input searchcandidates.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		s.fail(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	out, err := s.search.Execute(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Candidates)
}

// fail renders err with the status of its code. Only the public message leaves the process.
func (s *Server) fail(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)

	fields := map[string]interface{}{
		"path":   c.FullPath(),
		"code":   string(code),
		"status": status,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", fields)
	} else {
		s.logger.Warn("Request rejected", fields)
	}

	body := gin.H{"error": string(code), "message": apperrors.PublicMessage(err)}
	var pe *apperrors.PipelineError
	if stderrors.As(err, &pe) {
		body["stage"] = pe.Stage
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		s.logger.Info("Request handled", map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}
