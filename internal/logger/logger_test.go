package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	for _, tt := range []struct {
		name  string
		json  bool
		debug bool
	}{
		{name: "console info"},
		{name: "json debug", json: true, debug: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.json, tt.debug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Fatalf("expected debug enabled=%v, got %v", tt.debug, got)
			}
		})
	}
}

func TestEncoderWritesStepKey(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(&buf), zapcore.DebugLevel)

	zap.New(core).Debug("pipeline step", zap.String("name", "score"), zap.Duration("duration", 1500*time.Microsecond))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry[StepKey] != "pipeline step" {
		t.Fatalf("expected message under %q, got %v", StepKey, entry)
	}
	if entry["duration"] != "1.5ms" {
		t.Fatalf("expected readable duration, got %v", entry["duration"])
	}
	if entry["level"] != "debug" {
		t.Fatalf("unexpected level %v", entry["level"])
	}
}
