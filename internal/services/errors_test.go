package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/store"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "audio", "segment", "ina failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"audio", "segment", "ina failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
	if !services.IsRetryable(err) {
		t.Fatal("transient errors should be retryable")
	}
}

func TestFailureStatusMapping(t *testing.T) {
	notFound := services.Wrap(services.ErrNotFound, "tmdb", "search", "no results", nil)
	if status := services.FailureStatus(notFound); status != store.RunReview {
		t.Fatalf("expected review for not found, got %s", status)
	}
	transient := services.Wrap(services.ErrTransient, "scrape", "get", "timeout", errors.New("io"))
	if status := services.FailureStatus(transient); status != store.RunFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}
	if status := services.FailureStatus(nil); status != store.RunFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}
