package provider

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marker", &TransientError{Err: errors.New("busy")}, true},
		{"wrapped marker", fmt.Errorf("call: %w", &TransientError{Err: errors.New("busy")}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"breaker open", gobreaker.ErrOpenState, true},
		{"breaker half-open", gobreaker.ErrTooManyRequests, true},
		{"gollm rate limit", errors.New("anthropic: rate limit exceeded"), true},
		{"gollm overloaded", errors.New("API error: overloaded_error"), true},
		{"gollm 503", errors.New("unexpected status code: 503"), true},
		{"gollm status text", errors.New("API error: status code 429"), true},
		{"status error 529", &StatusError{Provider: "anthropic", StatusCode: 529}, true},
		{"status error 401", &StatusError{Provider: "anthropic", StatusCode: 401, Message: "rate limit exceeded"}, false},
		{"bad request", errors.New("unexpected status code: 400 model not found"), false},
		{"auth", errors.New("invalid x-api-key"), false},
		{"token limit", errors.New("max_tokens: 8192 > 5000, which is the maximum"), false},
		{"model name with digits", errors.New("model gpt-4-0429 does not exist"), false},
		{"key id with digits", errors.New("invalid x-api-key (key id sk-ant-4291)"), false},
		{"timeout setting", errors.New("invalid timeout parameter"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	cause := errors.New("slow down")
	err := &TransientError{Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "slow down", err.Error())
}
