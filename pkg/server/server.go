// Package server exposes the knowledge graph over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphaura/graphaura"
	"github.com/graphaura/graphaura/pkg/config"
	"github.com/graphaura/graphaura/pkg/server/handlers"
	"github.com/graphaura/graphaura/pkg/types"
)

// Server represents the HTTP server.
type Server struct {
	config  *config.Config
	router  *gin.Engine
	service graphaura.Service
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, service graphaura.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  cfg,
		service: service,
		logger:  logger,
	}
}

// Setup sets up the server routes and middleware.
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

// Router returns the configured gin engine. Setup must run first.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.service)
	graphHandler := handlers.NewGraphHandler(s.service)
	searchHandler := handlers.NewSearchHandler(s.service)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		entities := v1.Group("/entities")
		{
			entities.POST("", graphHandler.CreateEntity)
			entities.POST("/batch", graphHandler.CreateEntities)
			entities.GET("", graphHandler.FindEntities)
			entities.GET("/:id", graphHandler.GetEntity)
			entities.PATCH("/:id", graphHandler.UpdateEntity)
			entities.DELETE("/:id", graphHandler.DeleteEntity)
			entities.GET("/:id/relationships", graphHandler.RelationshipsOf)
			entities.GET("/:id/similar", searchHandler.Similar)
			entities.PUT("/:id/embedding", searchHandler.SetEmbedding)
		}

		relationships := v1.Group("/relationships")
		{
			relationships.POST("", graphHandler.CreateRelationship)
			relationships.GET("/:id", graphHandler.GetRelationship)
			relationships.DELETE("/:id", graphHandler.DeleteRelationship)
		}

		v1.POST("/traverse", graphHandler.Traverse)
		v1.POST("/traverse/path", graphHandler.ShortestPath)

		search := v1.Group("/search")
		{
			search.POST("/hybrid", searchHandler.Hybrid)
			search.POST("/semantic", searchHandler.Semantic)
			search.POST("/contextual", searchHandler.Contextual)
			search.POST("/clusters", searchHandler.Clusters)
			search.POST("/pairwise", searchHandler.Pairwise)
			search.POST("/documents", searchHandler.Documents)
			search.POST("/rag", searchHandler.Complete)
			search.GET("/suggestions", searchHandler.Suggestions)
		}

		v1.GET("/embeddings/stats", searchHandler.EmbeddingStats)
	}
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware extracts context information from headers.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyUserID, userID)
		}

		sessionID := c.GetHeader("X-Session-ID")
		if sessionID != "" {
			ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		}

		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
