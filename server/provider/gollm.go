package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/teilomillet/gollm"
	gollmconfig "github.com/teilomillet/gollm/config"
	"github.com/teilomillet/gollm/providers"
	"github.com/teilomillet/gollm/utils"

	"github.com/teilomillet/gmail-agent/config"
)

const (
	// defaultMaxTokens bounds the generated text for providers that
	// require an explicit limit.
	defaultMaxTokens = 1024

	maxResponseBytes = 4 << 20
	maxErrorMessage  = 512
)

// GollmBackend serves providers without an OpenAI-compatible API, such as
// Anthropic, through gollm's provider adapters. gollm builds the request
// and parses the answer; the call itself is made here so that each
// Generate is exactly one HTTP request and a failed call keeps its status.
type GollmBackend struct {
	provider providers.Provider
	endpoint string
	client   *http.Client
}

// NewGollmBackend creates the backend for cfg.Provider. cfg.Endpoint, when
// set, replaces the scheme, host and base path of the provider's API.
func NewGollmBackend(cfg config.LLMConfig) (*GollmBackend, error) {
	p, err := providers.NewProviderRegistry().Get(cfg.Provider, cfg.APIKey, cfg.Model, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.Provider, err)
	}

	gc := gollmconfig.NewConfig()
	gc.MaxTokens = defaultMaxTokens
	p.SetLogger(utils.NewLogger(utils.LogLevelOff))
	p.SetDefaultOptions(gc)

	endpoint, err := rebaseEndpoint(p.Endpoint(), cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	return &GollmBackend{
		provider: p,
		endpoint: endpoint,
		client:   &http.Client{},
	}, nil
}

// rebaseEndpoint keeps the API path of endpoint under base.
func rebaseEndpoint(endpoint, base string) (string, error) {
	if base == "" {
		return endpoint, nil
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: want an absolute URL", base)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse provider endpoint: %w", err)
	}
	b.Path = strings.TrimRight(b.Path, "/") + u.Path
	return b.String(), nil
}

// Name implements Backend.
func (b *GollmBackend) Name() string {
	return b.provider.Name()
}

// Endpoint returns the URL requests are sent to.
func (b *GollmBackend) Endpoint() string {
	return b.endpoint
}

// Generate implements Backend. The guardrail travels as the provider's
// system prompt, never inside the user text.
func (b *GollmBackend) Generate(ctx context.Context, system, user string) (string, error) {
	body, err := b.provider.PrepareRequest(user, map[string]interface{}{
		"system_prompt": system,
	})
	if err != nil {
		return "", fmt.Errorf("prepare %s request: %w", b.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", b.Name(), err)
	}
	for k, v := range b.provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send %s request: %w", b.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", b.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{
			Provider:   b.Name(),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if noContent(raw) {
		return "", nil
	}
	text, err := b.provider.ParseResponse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s response: %w", b.Name(), err)
	}
	return text, nil
}

// noContent reports an answer whose content list is present but empty,
// which gollm treats as an error.
func noContent(raw []byte) bool {
	var r struct {
		Content *[]json.RawMessage `json:"content"`
	}
	return json.Unmarshal(raw, &r) == nil && r.Content != nil && len(*r.Content) == 0
}

// errorMessage extracts {"error":{"message":...}} or falls back to the
// truncated body.
func errorMessage(raw []byte) string {
	var r struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &r) == nil && r.Error.Message != "" {
		return r.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

// LLMBackend adapts a ready-made gollm.LLM, such as a test double or a
// client the caller configured itself. NewBackend never selects it: the
// client's own retry policy and error text apply.
type LLMBackend struct {
	llm  gollm.LLM
	name string
}

// NewLLMBackend wraps llm under the given provider name.
func NewLLMBackend(name string, llm gollm.LLM) *LLMBackend {
	return &LLMBackend{llm: llm, name: name}
}

// Name implements Backend.
func (b *LLMBackend) Name() string {
	return b.name
}

// Generate implements Backend. The guardrail is passed as the prompt's
// system prompt so gollm forwards it as the provider's system option.
func (b *LLMBackend) Generate(ctx context.Context, system, user string) (string, error) {
	return b.llm.Generate(ctx, &gollm.Prompt{
		SystemPrompt: system,
		Input:        user,
	})
}
