// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openfolio/pulse/internal/api/handler"
	"github.com/openfolio/pulse/internal/api/middleware"
	"github.com/openfolio/pulse/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the dashboard API.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// NewServer creates a new HTTP server. The metrics registry may be nil
// to disable the metrics endpoint and HTTP instrumentation.
func NewServer(cfg Config, h *handler.Handler, reg *metrics.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	auth := middleware.APIKeyAuth(cfg.APIKey)
	mux.Handle("/api/v1/series", auth(http.HandlerFunc(h.Series)))
	mux.Handle("/api/v1/indicators", auth(http.HandlerFunc(h.Indicators)))
	mux.Handle("/api/v1/providers", auth(http.HandlerFunc(h.Providers)))
	mux.HandleFunc("/api/v1/health", h.Health)

	var root http.Handler = mux
	if reg != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		root = metrics.HTTPMiddleware(reg)(root)
	}
	root = middleware.RequestID()(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
