package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler wraps an http.Handler and turns panics into InternalError responses
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					requestID := w.Header().Get("X-Request-ID")
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stacktrace", stack),
						zap.String("request_id", requestID),
					)
					WriteError(w, NewInternalError(requestID, fmt.Errorf("internal server error: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs an error with its context. Every classified failure is
// logged at warn level with the underlying message.
func LogError(logger *zap.Logger, err error, requestID string) {
	var agentErr *AgentError
	if As(err, &agentErr) {
		fields := []zap.Field{
			zap.String("error_type", string(agentErr.Type)),
			zap.String("message", agentErr.Message),
			zap.Int("code", agentErr.Code),
			zap.String("request_id", requestID),
		}
		if agentErr.Details != nil {
			fields = append(fields, zap.Any("details", agentErr.Details))
		}
		if agentErr.err != nil {
			fields = append(fields, zap.NamedError("cause", agentErr.err))
		}
		logger.Warn("request error", fields...)
		return
	}
	logger.Warn("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
