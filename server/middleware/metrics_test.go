package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/middleware"
)

func TestPrometheusMetrics(t *testing.T) {
	m := metrics.NewMetrics()

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics(m))
	r.Post("/api/v1/agent/reply", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/v1/agent/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	tests := []struct {
		path           string
		expectedCode   int
		expectedLabel  string
		expectedStatus string
	}{
		{"/api/v1/agent/reply", http.StatusOK, "/api/v1/agent/reply", "200"},
		{"/api/v1/agent/summary", http.StatusTooManyRequests, "/api/v1/agent/summary", "429"},
		{"/does/not/exist", http.StatusNotFound, "unmatched", "404"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.expectedCode, rec.Code)
			count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(tt.expectedLabel, tt.expectedStatus))
			assert.Equal(t, float64(1), count)
		})
	}

	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveRequests.WithLabelValues("processing")))
}
