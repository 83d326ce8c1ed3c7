package agent

import (
	"github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server/provider"
)

// classifyRender maps a template failure to a ClientError: the request
// parameters could not fill the template.
func classifyRender(requestID string, err error) *errors.AgentError {
	return errors.NewError(errors.ClientError, err.Error(), errors.ClientError.StatusCode(), requestID, nil, err)
}

// classifyInvoke maps a backend failure to its outward kind. Failures the
// backend marks as temporary become TransientError; everything else is
// InternalError. An error that is already classified passes through.
func classifyInvoke(requestID string, err error) *errors.AgentError {
	var agentErr *errors.AgentError
	if errors.As(err, &agentErr) {
		if agentErr.RequestID == "" {
			agentErr.RequestID = requestID
		}
		return agentErr
	}
	if provider.IsTransient(err) {
		return errors.NewTransientError(requestID, err)
	}
	return errors.NewInternalError(requestID, err)
}
