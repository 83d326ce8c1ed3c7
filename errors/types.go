package errors

// NewError creates a new AgentError with the given parameters.
// It is a general-purpose constructor that allows full control over
// the error's fields. For most cases, you should use one of the
// specialized constructors below.
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *AgentError {
	return &AgentError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewClientError creates a 400 error for input the caller has to fix:
//   - empty subject or content
//   - missing required query parameters
//   - undecodable request bodies
//
// Example:
//
//	err := NewClientError("req_123", "subject & content cannot be null or empty")
func NewClientError(requestID, message string) *AgentError {
	return &AgentError{
		Type:      ClientError,
		Message:   message,
		Code:      ClientError.StatusCode(),
		RequestID: requestID,
	}
}

// NewTransientError creates a 429 error for a backend that is rate limiting
// or overloaded. The message of err becomes the response body.
func NewTransientError(requestID string, err error) *AgentError {
	return &AgentError{
		Type:      TransientError,
		Message:   messageOf(err, "model backend is temporarily unavailable"),
		Code:      TransientError.StatusCode(),
		RequestID: requestID,
		err:       err,
	}
}

// NewInternalError creates a 500 error. Use it for anything that is neither
// a client mistake nor a recognised transient backend condition:
//   - permanent backend failures (bad API key, unknown model)
//   - panics
//   - response encoding failures
func NewInternalError(requestID string, err error) *AgentError {
	return &AgentError{
		Type:      InternalError,
		Message:   messageOf(err, "An internal error occurred"),
		Code:      InternalError.StatusCode(),
		RequestID: requestID,
		err:       err,
	}
}

func messageOf(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
