package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/teilomillet/gmail-agent/config"
)

// Provider names served by the OpenAI SDK.
const (
	ProviderOpenAI  = "openai"
	ProviderGroq    = "groq"
	ProviderMistral = "mistral"
	ProviderOllama  = "ollama"
)

// compatibleBaseURLs are the OpenAI-compatible API roots of providers that
// speak the Chat Completions protocol. llm.endpoint replaces them.
var compatibleBaseURLs = map[string]string{
	ProviderGroq:    "https://api.groq.com/openai/v1",
	ProviderMistral: "https://api.mistral.ai/v1",
	ProviderOllama:  "http://localhost:11434/v1",
}

// IsOpenAICompatible reports whether provider is served by OpenAIBackend.
func IsOpenAICompatible(provider string) bool {
	if provider == ProviderOpenAI {
		return true
	}
	_, ok := compatibleBaseURLs[provider]
	return ok
}

// OpenAIBackend calls the Chat Completions API of OpenAI or of a
// compatible provider (Groq, Mistral, Ollama, any gateway).
type OpenAIBackend struct {
	client openai.Client
	name   string
	model  string
}

// NewOpenAIBackend builds the backend. SDK retries are disabled: each
// request results in exactly one upstream call.
func NewOpenAIBackend(cfg config.LLMConfig) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}

	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = compatibleBaseURLs[cfg.Provider]
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	name := cfg.Provider
	if name == "" {
		name = ProviderOpenAI
	}

	return &OpenAIBackend{
		client: openai.NewClient(opts...),
		name:   name,
		model:  cfg.Model,
	}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Generate implements Backend. A response without choices yields "".
func (b *OpenAIBackend) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
