package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/gollm"
	"go.uber.org/zap/zaptest"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/server/agent"
	"github.com/teilomillet/gmail-agent/server/handlers"
	"github.com/teilomillet/gmail-agent/server/metrics"
	"github.com/teilomillet/gmail-agent/server/mocks"
	"github.com/teilomillet/gmail-agent/server/provider"
)

const email = `{"subject":"Meeting","content":"Can we meet tomorrow at 3pm?"}`

func newTestRouter(t *testing.T, cfg *config.Config) (*Router, *mocks.MockLLM) {
	t.Helper()

	cfg.LLM.MaxContextTokens = 0
	llm := mocks.NewMockLLM(func(_ context.Context, p *gollm.Prompt) (string, error) {
		return "generated", nil
	})
	logger := zaptest.NewLogger(t)
	m := metrics.NewMetrics()

	a, err := agent.BuildWithBackend(cfg, provider.NewLLMBackend("mock", llm), m, logger)
	require.NoError(t, err)
	h := handlers.NewAgentHandler(a, cfg.Agent.DefaultStyle, logger)
	return NewRouter(cfg, h, m, logger), llm
}

func TestRouter_Routes(t *testing.T) {
	router, llm := newTestRouter(t, config.DefaultConfig())

	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "reply",
			method:       http.MethodPost,
			target:       ReplyPath + "?tone=friendly",
			body:         email,
			expectedCode: http.StatusOK,
			expectedBody: "generated",
		},
		{
			name:         "summary",
			method:       http.MethodPost,
			target:       SummaryPath,
			body:         email,
			expectedCode: http.StatusOK,
			expectedBody: "generated",
		},
		{
			name:         "unknown path",
			method:       http.MethodGet,
			target:       "/api/v1/agent/translate",
			expectedCode: http.StatusNotFound,
			expectedBody: "Not found",
		},
		{
			name:         "wrong method",
			method:       http.MethodGet,
			target:       ReplyPath,
			expectedCode: http.StatusMethodNotAllowed,
			expectedBody: "Method not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedBody, strings.TrimSpace(rec.Body.String()))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.NotEmpty(t, rec.Header().Get("X-Response-Time"))
		})
	}
	assert.Equal(t, 2, llm.Calls())
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, config.DefaultConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, config.DefaultConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, SummaryPath, strings.NewReader(email)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "gmail_agent_http_requests_total")
	assert.Contains(t, rec.Body.String(), `gmail_agent_generations_total{operation="summary",outcome="success"} 1`)
}

func TestRouter_CORS(t *testing.T) {
	router, llm := newTestRouter(t, config.DefaultConfig())

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, ReplyPath, nil)
		req.Header.Set("Origin", config.DefaultAllowedOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, config.DefaultAllowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, ReplyPath+"?tone=formal", strings.NewReader(email))
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid CORS request", strings.TrimSpace(rec.Body.String()))
	})

	assert.Zero(t, llm.Calls())
}

func TestRouter_RateLimit(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		router, _ := newTestRouter(t, config.DefaultConfig())
		assert.Nil(t, router.RateLimiter())
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
		router, llm := newTestRouter(t, cfg)
		require.NotNil(t, router.RateLimiter())

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, SummaryPath, strings.NewReader(email))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Equal(t, 2, llm.Calls())

		// Health stays outside the limiter.
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
