// Package logger builds the zap logger shared by the CLI, the HTTP server and
// the prediction pipeline.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StepKey holds the log message. Pipeline stages, HTTP requests and model
// calls all log what happened as a step ("pipeline step", "http request",
// "prediction scored"), so the key reads as a timeline when filtered.
const StepKey = "step"

// New builds the process logger. Console output is for interactive predict
// and chat sessions; json is for serve behind a log collector. Logs go to
// stderr so that predict --output json stays pipeable.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	// debug adds per-stage timings and prompt/response previews
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(),
	}

	return cfg.Build()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey: StepKey,

		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.RFC3339TimeEncoder,

		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
