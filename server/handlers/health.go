package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/teilomillet/gmail-agent/server/provider"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string                `json:"status"`
	Backend provider.HealthStatus `json:"backend"`
}

// Health reports liveness plus a summary of recent backend calls. It never
// calls the backend itself.
func (h *AgentHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Backend: h.agent.Health(),
	}); err != nil {
		h.logger.Warn("Failed to encode health response", zap.Error(err))
	}
}
