package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/estratto"
	"github.com/soundprediction/estratto/pkg/config"
	"github.com/soundprediction/estratto/pkg/server/handlers"
	"github.com/soundprediction/estratto/pkg/store"
	"github.com/soundprediction/estratto/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	router    *gin.Engine
	extractor estratto.Extractor
	cache     *store.Store
	server    *http.Server
}

// New creates a new server instance. cache may be nil when caching is
// disabled in the configuration.
func New(cfg *config.Config, extractor estratto.Extractor, cache *store.Store) *Server {
	return &Server{
		config:    cfg,
		extractor: extractor,
		cache:     cache,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.extractor)
	extractHandler := handlers.NewExtractHandler(s.extractor, s.cache)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/extract", extractHandler.Extract)
		v1.GET("/answers/:basket_id", extractHandler.GetAnswers)
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware propagates basket and question identifiers from headers
// so telemetry records carry them.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if questionID := c.GetHeader("X-Question-ID"); questionID != "" {
			ctx = telemetry.WithQuestionID(ctx, questionID)
		}
		if basketID := c.GetHeader("X-Basket-ID"); basketID != "" {
			ctx = telemetry.WithBasketID(ctx, basketID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
