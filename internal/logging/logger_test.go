package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hdcn-access/internal/config"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range cases {
		l := New(config.LogConfig{Level: in, Format: "json"})
		assert.True(t, l.Core().Enabled(want), "level %q should enable %s", in, want)
		if want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(want-1), "level %q should not enable %s", in, want-1)
		}
	}
}

func TestL_NopUntilInit(t *testing.T) {
	assert.False(t, L().Core().Enabled(zapcore.ErrorLevel))

	restore := zap.ReplaceGlobals(zap.NewNop())
	defer restore()
	l := Init(config.LogConfig{Level: "error"})
	assert.Same(t, l, L())
}

func TestDebug_UsesProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	Debug("token rejected", zap.String("user", "jan"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "token rejected", entry.Message)
	assert.Equal(t, "jan", entry.ContextMap()["user"])
}
