package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewClientError("", "bad"))

	assert.Equal(t, ClientError, TypeOf(wrapped))
	assert.Equal(t, TransientError, TypeOf(NewTransientError("", nil)))
	assert.Equal(t, InternalError, TypeOf(errors.New("plain")))
}

func TestIsMatchesOnType(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", NewTransientError("", errors.New("overloaded")))

	assert.True(t, Is(err, &AgentError{Type: TransientError}))
	assert.False(t, Is(err, &AgentError{Type: ClientError}))
}
