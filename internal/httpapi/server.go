package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/query"
)

// QueryService is the read-only contract the API exposes to the
// presentation layer. query.Engine satisfies it.
type QueryService interface {
	ShortestRoute(ctx context.Context, origin, destination string, mode query.Mode) (*domain.RouteResult, error)
	Hubs(ctx context.Context, opts query.HubOptions) ([]domain.HubAirport, error)
}

// HealthChecker probes the graph store connection.
type HealthChecker interface {
	Verify(ctx context.Context) error
}

type Server struct {
	engine QueryService
	health HealthChecker
	log    *logger.Logger
}

func NewServer(engine QueryService, health HealthChecker, log *logger.Logger) *Server {
	return &Server{engine: engine, health: health, log: log.With("component", "httpapi")}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/routes/shortest", s.handleShortestRoute)
	api.GET("/hubs", s.handleHubs)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.health.Verify(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
		return
	}
	respondOK(c, gin.H{"status": "ok"})
}

func (s *Server) handleShortestRoute(c *gin.Context) {
	mode, err := query.ParseMode(c.Query("mode"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_mode", err)
		return
	}

	result, err := s.engine.ShortestRoute(c.Request.Context(), c.Query("from"), c.Query("to"), mode)
	if err != nil {
		s.respondQueryError(c, err)
		return
	}
	respondOK(c, result)
}

func (s *Server) handleHubs(c *gin.Context) {
	opts := query.HubOptions{}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		opts.Limit = n
	}
	if v := c.Query("min_ops"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid_min_ops", err)
			return
		}
		opts.MinOps = n
	}

	hubs, err := s.engine.Hubs(c.Request.Context(), opts)
	if err != nil {
		s.respondQueryError(c, err)
		return
	}
	respondOK(c, hubs)
}

func (s *Server) respondQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		respondError(c, http.StatusBadRequest, "invalid_code", err)
	case errors.Is(err, domain.ErrUnknownAirport):
		respondError(c, http.StatusNotFound, "unknown_airport", err)
	case errors.Is(err, domain.ErrQueryTimeout):
		respondError(c, http.StatusGatewayTimeout, "query_timeout", err)
	default:
		s.log.Error("query failed", "error", err)
		respondError(c, http.StatusInternalServerError, "query_failed", err)
	}
}
