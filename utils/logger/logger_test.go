package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_WritesJSONWithService(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := Init(Options{Level: "info", Output: &buf})
	l.Debug("hidden")
	l.Info("visible")

	entry := decode(t, &buf)
	if entry["msg"] != "visible" {
		t.Errorf("expected only the info record, got %v", entry["msg"])
	}
	if entry["service"] != "wework-hub" {
		t.Errorf("expected service attribute, got %v", entry["service"])
	}
}

func TestTraceContextHandler_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.InfoContext(ctx, "traced")
	entry := decode(t, &buf)

	if entry["trace_id"] != "0102030405060708090a0b0c0d0e0f10" {
		t.Errorf("unexpected trace_id %v", entry["trace_id"])
	}
	if entry["span_id"] != "0102030405060708" {
		t.Errorf("unexpected span_id %v", entry["span_id"])
	}
}

func TestTraceContextHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	l.Info("untraced")
	entry := decode(t, &buf)

	if _, ok := entry["trace_id"]; ok {
		t.Error("expected no trace_id without a span")
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	l := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	l.Info("info only")

	if a.Len() == 0 {
		t.Error("expected first handler to receive the record")
	}
	if b.Len() != 0 {
		t.Error("expected error-level handler to skip the record")
	}
}
