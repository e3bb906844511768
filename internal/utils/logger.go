package utils

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the structured logger of a run. It writes console
// encoded entries to w; debug entries only appear at DiagnosticDebug and
// nothing is logged below DiagnosticVerbose.
func NewLogger(level DiagnosticLevel, w io.Writer) *zap.Logger {
	if level < DiagnosticVerbose {
		return zap.NewNop()
	}
	zapLevel := zapcore.InfoLevel
	if level >= DiagnosticDebug {
		zapLevel = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zapLevel)
	return zap.New(core)
}
