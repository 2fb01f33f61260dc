package api

import (
	"context"
	"fmt"
	"net/http"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/api/routes"
	"example.com/backstage/bookings/config"
	"example.com/backstage/bookings/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	config     *config.Config
	httpServer *http.Server
	log        *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, log *logrus.Logger, nrApp *newrelic.Application, deps routes.Dependencies) *Server {
	gin.SetMode(cfg.Server.Mode)

	if deps.Metrics == nil {
		deps.Metrics = metrics.Default()
	}
	if deps.Log == nil {
		deps.Log = log
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Metrics(deps.Metrics))

	if nrApp != nil {
		router.Use(middleware.NewRelic(nrApp)...)
	}

	routes.SetupRoutes(router, deps)

	return &Server{
		router: router,
		config: cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Infof("Starting server on port %d", s.config.Server.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
