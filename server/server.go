// Package server assembles the agent service: it builds the pipeline once
// from the configuration, mounts it on the router and runs the HTTP server.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/server/agent"
	"github.com/teilomillet/gmail-agent/server/handlers"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/provider"
	"github.com/teilomillet/gmail-agent/server/routing"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *routing.Router
	metrics    *metrics.Metrics
	cfg        *config.Config
	logger     *zap.Logger
}

// NewServer builds the backend named by cfg.LLM and returns a server ready
// to Start.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	backend, err := provider.NewBackend(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return NewServerWithBackend(cfg, backend, logger)
}

// NewServerWithBackend is NewServer with an explicit backend.
func NewServerWithBackend(cfg *config.Config, backend provider.Backend, logger *zap.Logger) (*Server, error) {
	m := metrics.NewMetrics()

	a, err := agent.BuildWithBackend(cfg, backend, m, logger)
	if err != nil {
		return nil, err
	}

	h := handlers.NewAgentHandler(a, cfg.Agent.DefaultStyle, logger)
	router := routing.NewRouter(cfg, h, m, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
		router:  router,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the metrics collected by this server.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start listens on the configured port and blocks until ctx is cancelled
// or the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
