// Package handlers exposes the email pipeline over HTTP.
//
// Both endpoints take the email as a JSON body and answer with plain text:
// the generated reply or summary on success, the error message otherwise.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	agenterrors "github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server/agent"
	"github.com/teilomillet/gmail-agent/server/middleware"
	"github.com/teilomillet/gmail-agent/server/provider"
	"github.com/teilomillet/gmail-agent/server/validation"
)

// maxBodyBytes bounds the email payload.
const maxBodyBytes = 1 << 20

// AgentHandler serves the reply and summary endpoints.
type AgentHandler struct {
	agent        *agent.Agent
	defaultStyle string
	logger       *zap.Logger
}

// NewAgentHandler creates a handler. defaultStyle is used when a summary
// request has no style parameter.
func NewAgentHandler(a *agent.Agent, defaultStyle string, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agent:        a,
		defaultStyle: defaultStyle,
		logger:       logger,
	}
}

// Reply handles POST /api/v1/agent/reply?tone=<tone>. The tone parameter
// is required but may be empty.
func (h *AgentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	query := r.URL.Query()
	if !query.Has("tone") {
		h.writeError(w, agenterrors.NewClientError(requestID, "Required request parameter 'tone' is not present"))
		return
	}

	email, err := decodeEmail(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, genErr := h.agent.GenerateReply(r.Context(), email, query.Get("tone"))
	h.respond(w, requestID, res, genErr)
}

// Summary handles POST /api/v1/agent/summary?style=<style>.
func (h *AgentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	query := r.URL.Query()
	style := h.defaultStyle
	if query.Has("style") {
		style = query.Get("style")
	}

	email, err := decodeEmail(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, genErr := h.agent.GenerateSummary(r.Context(), email, style)
	h.respond(w, requestID, res, genErr)
}

func (h *AgentHandler) respond(w http.ResponseWriter, requestID string, res *provider.GenerationResult, err error) {
	if err != nil {
		var agentErr *agenterrors.AgentError
		if !agenterrors.As(err, &agentErr) {
			agentErr = agenterrors.NewInternalError(requestID, err)
		}
		// The agent already logged the failure.
		agenterrors.WriteError(w, agentErr)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, res.Text); err != nil {
		h.logger.Warn("Failed to write response",
			zap.Error(err),
			zap.String("request_id", requestID))
	}
}

func (h *AgentHandler) writeError(w http.ResponseWriter, err *agenterrors.AgentError) {
	agenterrors.LogError(h.logger, err, err.RequestID)
	agenterrors.WriteError(w, err)
}

// decodeEmail reads the JSON body. A literal null decodes to a nil email,
// which the pipeline then rejects like an empty one.
func decodeEmail(w http.ResponseWriter, r *http.Request) (*validation.EmailMessage, *agenterrors.AgentError) {
	requestID := middleware.GetRequestID(r.Context())

	var email *validation.EmailMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&email); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, agenterrors.NewClientError(requestID, "Required request body is missing")
		case errors.As(err, &maxErr):
			return nil, agenterrors.NewClientError(requestID, "Request body is too large")
		default:
			return nil, agenterrors.NewError(agenterrors.ClientError, "Malformed JSON request body",
				http.StatusBadRequest, requestID, nil, err)
		}
	}
	return email, nil
}
