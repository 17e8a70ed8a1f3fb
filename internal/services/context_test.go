package services_test

import (
	"context"
	"testing"

	"seqmart/internal/services"
)

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.RunFromContext(ctx); ok {
		t.Fatal("expected no run on empty context")
	}

	ctx = services.WithRun(ctx, "SRR1234567")
	ctx = services.WithStage(ctx, "filter")
	ctx = services.WithRequestID(ctx, "req-1")

	if run, ok := services.RunFromContext(ctx); !ok || run != "SRR1234567" {
		t.Fatalf("run = %q, ok = %v", run, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "filter" {
		t.Fatalf("stage = %q, ok = %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id = %q, ok = %v", rid, ok)
	}
}

func TestContextIgnoresEmptyValues(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
}
