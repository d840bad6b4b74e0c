package tracing

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/framepulse/framepulse/internal/config"
)

func TestNewResourceSessionAttributes(t *testing.T) {
	res, err := newResource(context.Background(), config.TracingConfig{ServiceName: "svc"}, "checkout-flow", "01JSESSION")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}

	got := map[string]string{}
	for _, attr := range res.Attributes() {
		got[string(attr.Key)] = attr.Value.AsString()
	}
	if got["service.name"] != "svc" {
		t.Errorf("service.name = %q, want svc", got["service.name"])
	}
	if got["framepulse.story_id"] != "checkout-flow" {
		t.Errorf("framepulse.story_id = %q, want checkout-flow", got["framepulse.story_id"])
	}
	if got["framepulse.session"] != "01JSESSION" {
		t.Errorf("framepulse.session = %q, want 01JSESSION", got["framepulse.session"])
	}
}

func TestNewResourceOmitsEmptySession(t *testing.T) {
	res, err := newResource(context.Background(), config.TracingConfig{ServiceName: "svc"}, "", "")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "framepulse.story_id" || string(attr.Key) == "framepulse.session" {
			t.Errorf("unexpected attribute %s", attr.Key)
		}
	}
}

func TestResolveServiceName(t *testing.T) {
	if got := resolveServiceName(config.TracingConfig{ServiceName: "custom"}); got != "custom" {
		t.Errorf("resolveServiceName = %q, want custom", got)
	}
	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	if got := resolveServiceName(config.TracingConfig{}); got != "from-env" {
		t.Errorf("resolveServiceName = %q, want from-env", got)
	}
	t.Setenv("OTEL_SERVICE_NAME", "")
	if got := resolveServiceName(config.TracingConfig{}); got != tracerName {
		t.Errorf("resolveServiceName = %q, want %q", got, tracerName)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want sdktrace.Sampler
	}{
		{0, sdktrace.NeverSample()},
		{0.25, sdktrace.TraceIDRatioBased(0.25)},
		{1.0, sdktrace.AlwaysSample()},
	}
	for _, tt := range tests {
		if got := newSampler(tt.rate); got.Description() != tt.want.Description() {
			t.Errorf("newSampler(%g) = %q, want %q", tt.rate, got.Description(), tt.want.Description())
		}
	}
}
