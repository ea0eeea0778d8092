// Package http is the HTTP adapter over the workflow core. It translates
// requests into store and engine calls and owns no workflow logic itself.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/notify"
	"github.com/graphreq/permission-workflow/internal/store"
	"github.com/graphreq/permission-workflow/internal/workflow"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates the HTTP server with all routes wired
func NewServer(
	config ServerConfig,
	st *store.Store,
	engine *workflow.Engine,
	notifier notify.Notifier,
	audit AuditReader,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.Use(corsMiddleware())

	handlers := NewHandlers(st, engine, notifier, audit, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/catalog/permissions", handlers.ListPermissions)
		api.GET("/catalog/approvers", handlers.ListApprovers)

		api.POST("/requests", handlers.SubmitRequest)
		api.GET("/requests", handlers.ListRequests)
		api.GET("/requests/:id", handlers.GetRequest)
		api.GET("/requests/:id/progress", handlers.GetProgress)
		api.GET("/requests/:id/audit", handlers.GetAuditTrail)
		api.GET("/requests/:id/permissions/:permission/status", handlers.GetApprovalStatus)
		api.POST("/requests/:id/permissions/:permission/decision", handlers.Decide)
		api.POST("/requests/:id/implement", handlers.Implement)
		api.POST("/requests/:id/revisions", handlers.Revise)
	}

	return s
}

// Start begins listening; it blocks until the listener fails or is shut down
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
