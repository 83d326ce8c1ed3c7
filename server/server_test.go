package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/gollm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/server/mocks"
	"github.com/teilomillet/gmail-agent/server/provider"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.LLM.MaxContextTokens = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestNewServer_InvalidProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = ""

	_, err := NewServer(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	llm := mocks.NewMockLLM(func(_ context.Context, p *gollm.Prompt) (string, error) {
		return "Sounds good, see you at 3pm.", nil
	})
	srv, err := NewServerWithBackend(testConfig(), provider.NewLLMBackend("mock", llm), zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Post(base+"/api/v1/agent/reply?tone=friendly", "application/json",
		strings.NewReader(`{"subject":"Meeting","content":"Can we meet tomorrow at 3pm?"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Sounds good, see you at 3pm.", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(base + "/health")
	assert.Error(t, err)
}

func TestServer_StartListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	srv, err := NewServerWithBackend(cfg, provider.NewLLMBackend("mock", mocks.NewMockLLM(nil)), zaptest.NewLogger(t))
	require.NoError(t, err)

	err = srv.Start(context.Background())
	assert.Error(t, err)
}

func TestLogLevelFollowsConfigReload(t *testing.T) {
	cfg := testConfig()
	watcher := mocks.NewMockConfigWatcher(cfg)
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	done := make(chan struct{})
	go func() {
		config.WatchLogLevel(watcher, level, zaptest.NewLogger(t))
		close(done)
	}()
	require.Eventually(t, func() bool { return watcher.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	debug := testConfig()
	debug.Logging.Level = "debug"
	watcher.UpdateConfig(debug)
	assert.Eventually(t, func() bool { return level.Level() == zapcore.DebugLevel }, time.Second, 10*time.Millisecond)

	require.NoError(t, watcher.Close())
	<-done
}
