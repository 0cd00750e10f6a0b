// Package server is the gin HTTP adapter for the bubblekit runtime: it
// maps the REST and NDJSON endpoints onto the runtime and the stream
// controller.
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bubblekit/bubblekit"
	"github.com/bubblekit/bubblekit/internal/config"
	"github.com/bubblekit/bubblekit/internal/logger"
	"github.com/bubblekit/bubblekit/internal/metrics"
)

// Server wires the runtime and controller into a gin engine.
type Server struct {
	runtime    *bubblekit.Runtime
	controller *bubblekit.Controller
	cfg        *config.Config
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// New creates a server. The metrics argument may be nil.
func New(rt *bubblekit.Runtime, ctrl *bubblekit.Controller, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *Server {
	return &Server{
		runtime:    rt,
		controller: ctrl,
		cfg:        cfg,
		log:        log.WithComponent("http"),
		metrics:    m,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestContext())
	router.Use(s.corsMiddleware())

	router.GET("/healthz", s.handleHealth)
	if s.cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group("/api")
	api.GET("/conversations", s.handleListConversations)
	api.GET("/conversations/:conversationId/messages", s.handleMessages)
	api.POST("/conversations/stream", s.handleStream)
	api.POST("/streams/:streamId/cancel", s.handleCancel)

	return router
}

// requestContext tags every request with a request id and the requesting
// user, both echoed into the request context for downstream logging.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithUserID(ctx, requestUserID(c))
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, origin := range strings.Split(s.cfg.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, User-Id")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
