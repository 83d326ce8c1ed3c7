package routing

import (
	"github.com/go-chi/chi/v5"

	"github.com/teilomillet/gmail-agent/server/metrics"
)

// RegisterMetricsRoutes adds the Prometheus scrape endpoint.
func RegisterMetricsRoutes(r chi.Router, m *metrics.Metrics) {
	r.Method("GET", MetricsPath, m.Handler())
}
