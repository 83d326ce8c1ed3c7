package provider

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/server/circuitbreaker"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/prompt"
)

// HealthStatus summarises recent backend calls for the health endpoint.
type HealthStatus struct {
	Backend          string        `json:"backend"`
	LastCall         time.Time     `json:"last_call"`
	LastLatency      time.Duration `json:"last_latency_ns"`
	LastError        string        `json:"last_error,omitempty"`
	ConsecutiveFails int           `json:"consecutive_failures"`
	RequestCount     int64         `json:"request_count"`
	ErrorCount       int64         `json:"error_count"`
	BreakerState     string        `json:"breaker_state,omitempty"`
}

// Client invokes the backend once per request, measuring every call. It is
// safe for concurrent use.
type Client struct {
	backend Backend
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	health HealthStatus
}

// NewClient creates a client for backend. breaker and m may be nil.
func NewClient(backend Backend, breaker *circuitbreaker.CircuitBreaker, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		backend: backend,
		breaker: breaker,
		metrics: m,
		logger:  logger,
		health:  HealthStatus{Backend: backend.Name()},
	}
}

// Invoke sends p to the backend exactly once. There is no retry: transient
// failures are returned as *TransientError for the caller to act on.
func (c *Client) Invoke(ctx context.Context, p prompt.RenderedPrompt) (*GenerationResult, error) {
	start := time.Now()

	var text string
	call := func() error {
		var err error
		text, err = c.backend.Generate(ctx, p.System, p.User)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	elapsed := time.Since(start)

	c.record(start, elapsed, err)

	if err != nil {
		c.logger.Debug("backend call failed",
			zap.String("backend", c.backend.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if IsTransient(err) {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}

	return &GenerationResult{Text: text, Elapsed: elapsed}, nil
}

// Health returns a snapshot of the backend call history.
func (c *Client) Health() HealthStatus {
	c.mu.Lock()
	h := c.health
	c.mu.Unlock()

	if c.breaker != nil {
		h.BreakerState = c.breaker.State().String()
	}
	return h
}

func (c *Client) record(start time.Time, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.BackendDuration.WithLabelValues(c.backend.Name(), outcome).Observe(elapsed.Seconds())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.health.LastCall = start
	c.health.LastLatency = elapsed
	c.health.RequestCount++
	if err != nil {
		c.health.ErrorCount++
		c.health.ConsecutiveFails++
		c.health.LastError = err.Error()
		return
	}
	c.health.ConsecutiveFails = 0
	c.health.LastError = ""
}
