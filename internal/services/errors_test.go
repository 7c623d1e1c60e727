package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"winelens/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "search", "batch", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"search", "batch", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsSupersededUsesCancellationCause(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	if services.IsSuperseded(ctx, nil) {
		t.Fatal("live context must not report superseded")
	}
	cancel(services.ErrSuperseded)
	if !services.IsSuperseded(ctx, ctx.Err()) {
		t.Fatal("expected superseded cause to be detected")
	}

	plain, plainCancel := context.WithCancel(context.Background())
	plainCancel()
	if services.IsSuperseded(plain, plain.Err()) {
		t.Fatal("plain cancellation must not be reported as superseded")
	}
	if !services.IsCancellation(plain.Err()) {
		t.Fatal("expected plain cancellation to be a cancellation")
	}
}

func TestIsSupersededMatchesWrappedError(t *testing.T) {
	err := services.Wrap(services.ErrTransient, "matching", "remote", "", services.ErrSuperseded)
	if !services.IsSuperseded(context.Background(), err) {
		t.Fatalf("expected wrapped superseded error to match, got %v", err)
	}
	if services.IsSuperseded(context.Background(), errors.New("timeout")) {
		t.Fatal("unrelated error must not match")
	}
}
