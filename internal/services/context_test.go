package services_test

import (
	"context"
	"testing"

	"winelens/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFrameID(ctx, 42)
	ctx = services.WithSessionID(ctx, "session-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.FrameIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected frame id: %v %v", id, ok)
	}
	if sid, ok := services.SessionIDFromContext(ctx); !ok || sid != "session-1" {
		t.Fatalf("unexpected session id: %v %v", sid, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestSessionBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
}
