// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/server/handlers"
	"github.com/latticesearch/lattice/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine handlers.Engine
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, engine handlers.Engine) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(requestIDMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.engine)
	searchHandler := handlers.NewSearchHandler(s.engine)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		search := v1.Group("/search")
		{
			search.POST("", searchHandler.Search)
			search.POST("/boolean", searchHandler.SearchBoolean)
			search.POST("/fuzzy", searchHandler.SearchFuzzy)
			search.POST("/auto", searchHandler.SearchAuto)
		}
		v1.POST("/estimate", searchHandler.Estimate)
	}

	// Unversioned aliases
	s.router.POST("/search", searchHandler.Search)
	s.router.POST("/search/boolean", searchHandler.SearchBoolean)
	s.router.POST("/search/fuzzy", searchHandler.SearchFuzzy)
	s.router.POST("/search/auto", searchHandler.SearchAuto)
	s.router.POST("/estimate", searchHandler.Estimate)
}

// Router returns the configured gin router. Setup must have been called.
func (s *Server) Router() *gin.Engine {
	return s.router
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
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware threads a request ID through the context so log
// records can be correlated per request. Callers may supply their own via
// the X-Request-ID header.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := telemetry.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
