package errors

import (
	"errors"
)

// As is a wrapper around errors.As for better error type assertion
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// TypeOf returns the ErrorType of err, or InternalError when err is not an
// AgentError.
func TypeOf(err error) ErrorType {
	var agentErr *AgentError
	if As(err, &agentErr) {
		return agentErr.Type
	}
	return InternalError
}
