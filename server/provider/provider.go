// Package provider sends rendered prompts to the configured model backend.
//
// One backend is selected per deployment. OpenAI and the providers with an
// OpenAI-compatible API (groq, mistral, ollama) go through the OpenAI SDK;
// the rest (anthropic) through gollm's provider adapters. Either way a
// Generate is one upstream request, and failures keep the backend's
// transient/permanent distinction so callers can map them to the right
// outward error.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/teilomillet/gmail-agent/config"
)

// Backend issues a single generation call. An empty string with a nil
// error means the model produced no content.
type Backend interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// GenerationResult is the text produced for one request and the time the
// backend call took.
type GenerationResult struct {
	Text    string
	Elapsed time.Duration
}

// ElapsedMillis returns Elapsed in whole milliseconds.
func (r *GenerationResult) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(cfg config.LLMConfig) (Backend, error) {
	switch {
	case cfg.Provider == "":
		return nil, fmt.Errorf("no LLM provider configured")
	case IsOpenAICompatible(cfg.Provider):
		return NewOpenAIBackend(cfg), nil
	}

	b, err := NewGollmBackend(cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}
