package telemetry

import (
	"context"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Enabled() {
		t.Error("Expected disabled provider")
	}
	_, span := p.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("Expected no-op span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Unexpected shutdown error: %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: true, Endpoint: "http://127.0.0.1:1/v1/traces"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !p.Enabled() {
		t.Fatal("Expected enabled provider")
	}
	_, span := p.Tracer("test").Start(context.Background(), "op")
	if !span.SpanContext().IsValid() {
		t.Error("Expected a recording span")
	}
	span.End()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx) // export to a closed port may fail; only the call matters
}

func TestGenAIAttributes(t *testing.T) {
	if got := GenAIAttributes("openai", "m", 0); len(got) != 3 {
		t.Errorf("Expected 3 attributes, got %d", len(got))
	}
	if got := GenAIAttributes("openai", "m", 200); len(got) != 4 {
		t.Errorf("Expected 4 attributes, got %d", len(got))
	}
}
