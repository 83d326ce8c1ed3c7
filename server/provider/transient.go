package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"syscall"

	"github.com/openai/openai-go/v3"

	"github.com/teilomillet/gmail-agent/server/circuitbreaker"
)

// TransientError marks a backend failure that is safe to retry later: the
// backend is rate limiting, overloaded or briefly unreachable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err, or anything it wraps, signals a
// temporary backend condition.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if circuitbreaker.IsRejection(err) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.StatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return transientStatus(statusErr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return transientMessage(err.Error())
}

// StatusError is a non-2xx answer from a backend called over plain HTTP.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: status code %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status code %d: %s", e.Provider, e.StatusCode, e.Message)
}

func transientStatus(code int) bool {
	switch {
	case code == 408, code == 409, code == 429:
		return true
	case code >= 500:
		return true
	}
	return false
}

// Errors that reach us only as text (a caller-supplied gollm.LLM) are
// matched on status-shaped fragments and explicit phrases. Bare numbers are
// never enough: model names, key ids and token limits contain them.
var transientStatusText = regexp.MustCompile(`(?i)\b(?:status(?:[ _]code)?|http)[\s:=]*(?:408|409|429|5\d\d)\b`)

var transientPhrases = []string{
	"rate limit exceeded",
	"rate_limit_exceeded",
	"rate_limit_error",
	"too many requests",
	"overloaded",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"connection refused",
	"connection reset",
}

func transientMessage(msg string) bool {
	if transientStatusText.MatchString(msg) {
		return true
	}
	msg = strings.ToLower(msg)
	for _, p := range transientPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
