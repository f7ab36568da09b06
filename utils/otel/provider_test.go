package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "")
		t.Setenv("OTEL_ENABLED", "")
		t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

		cfg := ConfigFromEnv()

		if cfg.ServiceName != "wework-hub" {
			t.Errorf("expected ServiceName 'wework-hub', got %s", cfg.ServiceName)
		}
		if !cfg.Enabled {
			t.Error("expected Enabled to be true by default")
		}
		if cfg.SampleRatio != 1.0 {
			t.Errorf("expected SampleRatio 1.0, got %v", cfg.SampleRatio)
		}
		if cfg.OTLPEndpoint != "http://localhost:4318" {
			t.Errorf("unexpected endpoint %s", cfg.OTLPEndpoint)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "false")
		t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "0.25")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318/")

		cfg := ConfigFromEnv()

		if cfg.Enabled {
			t.Error("expected Enabled to be false")
		}
		if cfg.SampleRatio != 0.25 {
			t.Errorf("expected SampleRatio 0.25, got %v", cfg.SampleRatio)
		}
		if cfg.OTLPEndpoint != "http://collector:4318" {
			t.Errorf("expected trailing slash trimmed, got %s", cfg.OTLPEndpoint)
		}
	})

	t.Run("out of range ratio ignored", func(t *testing.T) {
		t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "2")

		if cfg := ConfigFromEnv(); cfg.SampleRatio != 1.0 {
			t.Errorf("expected default SampleRatio, got %v", cfg.SampleRatio)
		}
	})
}

func TestInitProvider_Disabled(t *testing.T) {
	cfg := Config{
		ServiceName:  "test",
		Enabled:      false,
		OTLPEndpoint: "http://localhost:4318",
	}

	shutdown, err := InitProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields := otel.GetTextMapPropagator().Fields(); len(fields) == 0 {
		t.Error("expected a propagator to be installed")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}
