package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFieldsFallsBackToNop(t *testing.T) {
	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestWithAIFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithAIFields(zap.New(core), "gemini", "gemma-3n-e4b-it").Info("narrative requested")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemma-3n-e4b-it" {
		t.Fatalf("unexpected model field %q", ctx[FieldModel])
	}
}

func TestWithRequestSkipsEmptyValues(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithRequest(zap.New(core), "req-1", "").Info("scored")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldRequestID] != "req-1" {
		t.Fatalf("unexpected request id %q", ctx[FieldRequestID])
	}
	if _, ok := ctx[FieldModelType]; ok {
		t.Fatalf("expected empty model type to be omitted")
	}
}
