package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggingConfigNewLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			logger, level, err := LoggingConfig{Level: "warn", Format: format}.NewLogger()
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Equal(t, zapcore.WarnLevel, level.Level())
			assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
