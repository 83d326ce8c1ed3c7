package agent

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/server/circuitbreaker"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/prompt"
	"github.com/teilomillet/gmail-agent/server/provider"
)

// Build creates the Agent described by cfg, including its model backend.
func Build(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Agent, error) {
	backend, err := provider.NewBackend(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return BuildWithBackend(cfg, backend, m, logger)
}

// BuildWithBackend is like Build but uses the given backend. m must not be nil.
func BuildWithBackend(cfg *config.Config, backend provider.Backend, m *metrics.Metrics, logger *zap.Logger) (*Agent, error) {
	renderer, err := prompt.NewRenderer(cfg.Agent.SystemPrompt, cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breaker, err = circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			Name:             backend.Name(),
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			TestMode:         cfg.CircuitBreaker.TestMode,
		}, logger, m.Registry())
		if err != nil {
			return nil, fmt.Errorf("create circuit breaker: %w", err)
		}
	}

	// Token counts only feed logs and metrics, so a missing encoding is not fatal.
	var tokens *prompt.TokenCounter
	if cfg.LLM.MaxContextTokens > 0 {
		tokens, err = prompt.NewTokenCounter(cfg.LLM.Model)
		if err != nil {
			logger.Warn("Prompt token counting disabled", zap.Error(err))
		}
	}

	client := provider.NewClient(backend, breaker, m, logger)

	logger.Info("Agent ready",
		zap.String("backend", backend.Name()),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("circuit_breaker", breaker != nil),
		zap.Bool("custom_system_prompt", cfg.Agent.SystemPrompt != ""),
	)

	return New(renderer, client, logger,
		WithMetrics(m),
		WithTokenCounter(tokens, cfg.LLM.MaxContextTokens),
		WithFormatting(cfg.Prompts.ResponseFormatting),
	), nil
}
