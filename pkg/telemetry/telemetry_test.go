package telemetry

import (
	"context"
	"testing"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := Init(context.Background(), "voicesearch-test")
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Expected no-op shutdown, got %v", err)
	}
}

func TestSampleRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0.1},
		{"0.5", 0.5},
		{"1", 1},
		{"1.5", 0.1},
		{"-0.2", 0.1},
		{"often", 0.1},
	}
	for _, tt := range tests {
		if got := SampleRate(tt.raw); got != tt.want {
			t.Errorf("SampleRate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
