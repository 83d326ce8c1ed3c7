// Package agent runs the email pipeline: validate the email, render the
// prompt for the requested operation, invoke the model once and classify
// any failure.
package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/middleware"
	"github.com/teilomillet/gmail-agent/server/prompt"
	"github.com/teilomillet/gmail-agent/server/provider"
	"github.com/teilomillet/gmail-agent/server/validation"
)

// Operation names one of the two pipeline entry points.
type Operation string

const (
	OperationReply   Operation = "reply"
	OperationSummary Operation = "summary"
)

// Agent is built once at start-up and shared by every request. None of its
// fields change after New returns.
type Agent struct {
	renderer   *prompt.Renderer
	client     *provider.Client
	tokens     *prompt.TokenCounter
	metrics    *metrics.Metrics
	formatting config.ResponseFormattingConfig
	maxContext int
	logger     *zap.Logger
}

// Option configures optional Agent collaborators.
type Option func(*Agent)

// WithTokenCounter reports prompt sizes through tc.
func WithTokenCounter(tc *prompt.TokenCounter, maxContextTokens int) Option {
	return func(a *Agent) {
		a.tokens = tc
		a.maxContext = maxContextTokens
	}
}

// WithMetrics records pipeline outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithFormatting shapes successful responses.
func WithFormatting(cfg config.ResponseFormattingConfig) Option {
	return func(a *Agent) {
		a.formatting = cfg
	}
}

// New creates an Agent from its required collaborators.
func New(renderer *prompt.Renderer, client *provider.Client, logger *zap.Logger, opts ...Option) *Agent {
	a := &Agent{
		renderer: renderer,
		client:   client,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateReply generates a reply to email in the given tone. Any tone,
// including the empty string, is passed to the model as is.
func (a *Agent) GenerateReply(ctx context.Context, email *validation.EmailMessage, tone string) (*provider.GenerationResult, error) {
	requestID := middleware.GetRequestID(ctx)

	if !validation.ValidateEmail(email) {
		return nil, a.fail(OperationReply, errors.NewClientError(requestID, validation.EmptyEmailMessage))
	}

	a.logger.Info("Generating reply for the email",
		zap.String("subject", email.Subject),
		zap.String("tone", tone),
		zap.String("request_id", requestID))

	p, err := a.renderer.RenderReply(email.Subject, email.Content, tone)
	if err != nil {
		return nil, a.fail(OperationReply, classifyRender(requestID, err))
	}
	return a.generate(ctx, OperationReply, requestID, p)
}

// GenerateSummary summarises email in the given style. The style is free
// text: unrecognised values are still sent to the model unchanged.
func (a *Agent) GenerateSummary(ctx context.Context, email *validation.EmailMessage, style string) (*provider.GenerationResult, error) {
	requestID := middleware.GetRequestID(ctx)

	if !validation.ValidateEmail(email) {
		return nil, a.fail(OperationSummary, errors.NewClientError(requestID, validation.EmptyEmailMessage))
	}

	a.logger.Info("Generating summary for the email",
		zap.String("style", style),
		zap.String("subject", email.Subject),
		zap.String("request_id", requestID))

	p, err := a.renderer.RenderSummary(email.Subject, email.Content, style)
	if err != nil {
		return nil, a.fail(OperationSummary, classifyRender(requestID, err))
	}
	return a.generate(ctx, OperationSummary, requestID, p)
}

// Health reports on recent backend calls.
func (a *Agent) Health() provider.HealthStatus {
	return a.client.Health()
}

func (a *Agent) generate(ctx context.Context, op Operation, requestID string, p prompt.RenderedPrompt) (*provider.GenerationResult, error) {
	if a.tokens != nil {
		n := a.tokens.Count(p)
		if a.metrics != nil {
			a.metrics.PromptTokens.WithLabelValues(string(op)).Observe(float64(n))
		}
		if a.maxContext > 0 && n > a.maxContext {
			// The backend decides; a long email is not rejected here.
			a.logger.Warn("Prompt exceeds the model context window",
				zap.Int("prompt_tokens", n),
				zap.Int("max_context_tokens", a.maxContext),
				zap.String("request_id", requestID))
		}
	}

	res, err := a.client.Invoke(ctx, p)
	if err != nil {
		return nil, a.fail(op, classifyInvoke(requestID, err))
	}

	res.Text = formatResponse(res.Text, a.formatting)

	a.logger.Info("Generated "+string(op)+" successfully",
		zap.Int("length", len([]rune(res.Text))),
		zap.Int64("elapsed_ms", res.ElapsedMillis()),
		zap.String("request_id", requestID))
	if a.metrics != nil {
		a.metrics.GenerationsTotal.WithLabelValues(string(op), "success").Inc()
	}
	return res, nil
}

// fail records a failed generation. It is the only place a pipeline
// failure is logged: one warning carrying the kind and the cause.
func (a *Agent) fail(op Operation, err *errors.AgentError) error {
	if a.metrics != nil {
		a.metrics.GenerationsTotal.WithLabelValues(string(op), string(err.Type)).Inc()
		a.metrics.ErrorsTotal.WithLabelValues(string(err.Type)).Inc()
	}
	errors.LogError(a.logger.With(zap.String("operation", string(op))), err, err.RequestID)
	return err
}
