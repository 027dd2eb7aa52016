package control

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starhopp3r/sci-cam-edge/internal/scicam"
	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

// StatsFunc supplies a point-in-time snapshot of pipeline internals for the
// status endpoint.
type StatsFunc func() map[string]interface{}

// Server exposes the runtime publish settings over HTTP. Size and type
// changes that the publisher rejects come back as 400s; the configuration is
// left untouched.
type Server struct {
	publisher  *scicam.Publisher
	stats      StatsFunc
	engine     *gin.Engine
	httpServer *http.Server
}

func NewServer(addr string, publisher *scicam.Publisher, stats StatsFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		publisher: publisher,
		stats:     stats,
		engine:    engine,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/status", s.handleStatus)
	v1.PUT("/publish/enabled", s.handleSetEnabled)
	v1.PUT("/publish/size", s.handleSetSize)
	v1.PUT("/publish/type", s.handleSetType)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	status := gin.H{
		"publish":   s.publisher.GetSettings(),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if s.stats != nil {
		status["pipeline"] = s.stats()
	}
	c.JSON(http.StatusOK, status)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) handleSetEnabled(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"enabled\": bool}"})
		return
	}

	s.publisher.SetEnabled(*req.Enabled)
	logger.Log.Infow("Publish enabled changed", "enabled", *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"publish": s.publisher.GetSettings()})
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleSetSize(c *gin.Context) {
	var req sizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"width\": int, \"height\": int}"})
		return
	}

	if !s.publisher.SetPublishSize(req.Width, req.Height) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid size %dx%d: dimensions must be positive", req.Width, req.Height),
		})
		return
	}

	logger.Log.Infow("Publish size changed", "width", req.Width, "height", req.Height)
	c.JSON(http.StatusOK, gin.H{"publish": s.publisher.GetSettings()})
}

type typeRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleSetType(c *gin.Context) {
	var req typeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"type\": string}"})
		return
	}

	if !s.publisher.SetPublishType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid publish type %q: must be color or grayscale", req.Type),
		})
		return
	}

	logger.Log.Infow("Publish type changed", "type", req.Type)
	c.JSON(http.StatusOK, gin.H{"publish": s.publisher.GetSettings()})
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Log.Infow("Control server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
