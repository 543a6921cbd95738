package otel_test

import (
	"context"
	"testing"

	"actuation/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("ACTUATION_OTEL_ENDPOINT", "")
	t.Setenv("ACTUATION_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("ACTUATION_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("ACTUATION_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_RejectsMalformedFlag(t *testing.T) {
	t.Setenv("ACTUATION_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("ACTUATION_OTEL_ENABLED", "maybe")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if shutdown == nil {
		t.Fatal("expected no-op shutdown on error")
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address: nothing is exported since no span is started.
	t.Setenv("ACTUATION_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("ACTUATION_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
