package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Setup(ctx, "appraisal-engine", "test", "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}()

	_, span := otel.Tracer("test").Start(ctx, "noop")
	span.End()
}
