// Package api serves batch submission over HTTP for the web front-end.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"taxfiler/internal/config"
	"taxfiler/internal/logger"
	"taxfiler/pkg/services"
)

const (
	readTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	// writeSlack is added on top of the batch timeout so a 504 with the
	// partial report can still be written.
	writeSlack = 30 * time.Second
)

// Server is the HTTP server adapter
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	router     *gin.Engine
	submitter  services.BatchSubmitter
	log        zerolog.Logger
}

// NewServer creates a new HTTP server around the given batch submitter
func NewServer(cfg *config.Config, submitter services.BatchSubmitter) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		cfg:       cfg,
		router:    gin.New(),
		submitter: submitter,
		log:       logger.WithComponent("api"),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.bodyLimitMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.log.Info().
			Str("method", method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) bodyLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.submitter, s.cfg.BatchTimeout, s.log)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/process", handlers.Process)
	}
}

// Start serves until ctx is canceled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ServerAddr,
		Handler:           s.router,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      s.cfg.BatchTimeout + writeSlack,
	}

	s.log.Info().Str("address", s.cfg.ServerAddr).Msg("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.log.Error().Err(err).Msg("HTTP server error")
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.log.Info().Msg("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
