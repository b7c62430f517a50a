// Package logging builds the process-wide zap logger. Library packages that
// are not handed a logger fall back to L.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hdcn-access/internal/config"
)

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// New builds a logger from cfg without installing it.
func New(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       timeEncoder,
		EncodeDuration:   zapcore.MillisDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller())
}

// Init builds the process-wide logger and installs it as the zap global.
func Init(cfg config.LogConfig) *zap.Logger {
	l := New(cfg)
	zap.ReplaceGlobals(l)
	return l
}

// L returns the process-wide logger. It is a nop logger until Init runs.
func L() *zap.Logger {
	return zap.L()
}

// Sync flushes buffered entries.
func Sync() error {
	return zap.L().Sync()
}

// Debug logs through the process-wide logger with the caller's location.
func Debug(msg string, fields ...zap.Field) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}
