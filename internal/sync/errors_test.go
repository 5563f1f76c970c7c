package sync

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	base := fetchError("order fetch failed after token refresh: %w", errors.New("status 401"))
	wrapped := fmt.Errorf("sync run failed: %w", base)

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatalf("Expected a sync error, got %T", wrapped)
	}
	if kind != KindFetch {
		t.Errorf("Expected %s, got %s", KindFetch, kind)
	}
}

func TestKindOfRejectsPlainErrors(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("Plain error reported a sync kind")
	}
}

func TestErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := persistenceError("failed to commit sync batch: %w", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
}
