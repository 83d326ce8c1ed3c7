// Package errors provides the error model of the gmail-agent service.
// Every failure that leaves the request pipeline is an *AgentError carrying
// one of three kinds, which in turn decides the HTTP status the browser
// extension receives:
//
//   - ClientError: the request itself is malformed (400)
//   - TransientError: the model backend is rate limiting or overloaded (429)
//   - InternalError: anything else (500)
//
// Responses are written as plain text: the body is the error message and
// nothing else, which is what the extension displays to the user.
//
// Basic usage:
//
//	errors.WriteError(w, errors.NewClientError(requestID, "subject & content cannot be null or empty"))
//
// Logging goes through a package-level zap logger that can be replaced with
// SetLogger during start-up.
package errors

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// If nil is provided, the function will do nothing to prevent
// accidentally disabling logging.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType is the outward-facing category of a failure.
type ErrorType string

const (
	// ClientError marks malformed input. The caller must fix the request.
	ClientError ErrorType = "client_error"
	// TransientError marks a backend that is temporarily unavailable or
	// rate limiting. The caller may retry after a delay.
	TransientError ErrorType = "transient_error"
	// InternalError marks an unexpected failure. Not assumed safe to retry.
	InternalError ErrorType = "internal_error"
)

// StatusCode returns the HTTP status associated with the error type.
func (t ErrorType) StatusCode() int {
	switch t {
	case ClientError:
		return http.StatusBadRequest
	case TransientError:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AgentError is a classified pipeline failure. Message is what the client
// sees; the wrapped error is kept for logging and errors.Is/As chains.
type AgentError struct {
	// Type categorizes the error for client handling
	Type ErrorType `json:"type"`
	// Message is the human-readable text written as the response body
	Message string `json:"message"`
	// Code is the HTTP status code
	Code int `json:"-"`
	// RequestID links the error to a specific request
	RequestID string `json:"request_id,omitempty"`
	// Details contains additional context for logs only
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

// Error implements the error interface. It returns a string that
// combines the error type, message, and underlying error (if any).
func (e *AgentError) Error() string {
	if e.err != nil && e.err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AgentError) Unwrap() error {
	return e.err
}

// Is matches on error type only, so errors.Is(err, &AgentError{Type: TransientError})
// answers "is this a transient failure".
func (e *AgentError) Is(target error) bool {
	t, ok := target.(*AgentError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithRequestID returns the error tagged with the given request id.
func (e *AgentError) WithRequestID(requestID string) *AgentError {
	e.RequestID = requestID
	return e
}

// WriteError writes an AgentError as a plain-text response with the status
// code of its type. The request id, when known, is echoed in X-Request-ID.
func WriteError(w http.ResponseWriter, err *AgentError) {
	code := err.Code
	if code == 0 {
		code = err.Type.StatusCode()
	}
	if err.RequestID != "" && w.Header().Get("X-Request-ID") == "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	fmt.Fprint(w, err.Message)
}

// Error is a drop-in replacement for http.Error that writes an
// InternalError with the given message and code.
func Error(w http.ResponseWriter, message string, code int) {
	ErrorWithType(w, message, InternalError, code)
}

// ErrorWithType is like Error but allows specifying the error type.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	WriteError(w, &AgentError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
