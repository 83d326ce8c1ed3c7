// Package routing wires the agent endpoints, health and metrics onto a chi
// router with the global middleware stack.
package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server/handlers"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/middleware"
)

// API paths served by the router.
const (
	ReplyPath   = "/api/v1/agent/reply"
	SummaryPath = "/api/v1/agent/summary"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Router handles HTTP routing for the agent service.
type Router struct {
	router  chi.Router
	limiter *middleware.RateLimiter
	logger  *zap.Logger
}

// NewRouter creates a router serving h. The rate limiter is installed on the
// agent routes only when cfg.RateLimit.Enabled is set.
func NewRouter(cfg *config.Config, h *handlers.AgentHandler, m *metrics.Metrics, logger *zap.Logger) *Router {
	r := &Router{
		router: chi.NewRouter(),
		logger: logger,
	}
	if cfg.RateLimit.Enabled {
		r.limiter = middleware.NewRateLimiter(cfg.RateLimit, m)
	}

	// Global middleware stack
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RequestTimer)
	r.router.Use(middleware.Logging(logger))
	r.router.Use(middleware.PrometheusMetrics(m))
	r.router.Use(errors.ErrorHandler(logger))
	r.router.Use(middleware.CORS(cfg.Agent.AllowedOrigin))

	r.router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.ErrorWithType(w, "Not found", errors.ClientError, http.StatusNotFound)
	})
	r.router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		errors.ErrorWithType(w, "Method not allowed", errors.ClientError, http.StatusMethodNotAllowed)
	})

	r.router.Group(func(api chi.Router) {
		if r.limiter != nil {
			api.Use(r.limiter.Handler)
		}
		api.Post(ReplyPath, h.Reply)
		api.Post(SummaryPath, h.Summary)
	})
	r.router.Get(HealthPath, h.Health)
	RegisterMetricsRoutes(r.router, m)

	logger.Debug("Routes registered",
		zap.Strings("routes", []string{ReplyPath, SummaryPath, HealthPath, MetricsPath}),
		zap.Bool("rate_limit", r.limiter != nil),
	)
	return r
}

// RateLimiter returns the inbound limiter, or nil when rate limiting is off.
func (r *Router) RateLimiter() *middleware.RateLimiter {
	return r.limiter
}

// ServeHTTP implements the http.Handler interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
