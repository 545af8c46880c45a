package logger

import (
	"testing"

	"codequiz_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		name  string
		mode  string
		level string
		want  zapcore.Level
	}{
		{"debug mode", "debug", "", zapcore.DebugLevel},
		{"release mode", "release", "", zapcore.InfoLevel},
		{"explicit level wins", "debug", "warn", zapcore.WarnLevel},
		{"bad level falls back", "release", "loud", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Mode: tc.mode}, Log: config.LogConfig{Level: tc.level}}
			assert.Equal(t, tc.want, LevelFor(cfg))
		})
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(&config.Config{Log: config.LogConfig{Level: "error"}})
	assert.Equal(t, zapcore.ErrorLevel, level.Level())
	SetLevel(&config.Config{Server: config.ServerConfig{Mode: "debug"}})
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}
