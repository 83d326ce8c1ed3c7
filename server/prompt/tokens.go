package prompt

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer defines the interface for token counting
type Tokenizer interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// TokenCounter estimates prompt sizes for logging and metrics. A nil
// *TokenCounter counts nothing, so callers can keep going when no encoding
// is available for the configured model.
type TokenCounter struct {
	encoding Tokenizer
}

// NewTokenCounter creates a token counter for the specified model. Unknown
// models fall back to the cl100k_base encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
		}
	}
	return &TokenCounter{encoding: encoding}, nil
}

// NewTokenCounterWith wraps an existing tokenizer.
func NewTokenCounterWith(t Tokenizer) *TokenCounter {
	return &TokenCounter{encoding: t}
}

// Count returns the number of tokens in a rendered prompt.
func (tc *TokenCounter) Count(p RenderedPrompt) int {
	if tc == nil || tc.encoding == nil {
		return 0
	}
	return len(tc.encoding.Encode(p.System, nil, nil)) + len(tc.encoding.Encode(p.User, nil, nil))
}
