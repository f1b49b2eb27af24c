package requestctx

import (
	"context"
	"testing"
)

func TestMetaRoundTrip(t *testing.T) {
	ctx := With(context.Background(), Meta{RequestID: "r1", ClientIP: "10.0.0.1"})
	if got := From(ctx); got.RequestID != "r1" || got.ClientIP != "10.0.0.1" {
		t.Fatalf("unexpected meta: %+v", got)
	}
	if got := From(context.Background()); got != (Meta{}) {
		t.Fatalf("expected zero meta, got %+v", got)
	}
}

func TestForJob(t *testing.T) {
	if got := From(ForJob(context.Background(), "gosi_draft_refresh", "abc")).RequestID; got != "job:gosi_draft_refresh:abc" {
		t.Fatalf("unexpected job id: %q", got)
	}
	if got := From(ForJob(context.Background(), "notification_email", "")).RequestID; got != "job:notification_email" {
		t.Fatalf("unexpected job id without run: %q", got)
	}
}
