package errors

import "testing"

func TestDimensionMismatchMessage(t *testing.T) {
	err := NewDimensionMismatch(128, 64)
	want := "dimension mismatch: expected 128, got 64"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestWrapDomainErrorPassesThroughTypedTags(t *testing.T) {
	original := NewOutOfRangeId(42)
	wrapped := WrapDomainError(original)
	if wrapped != original {
		t.Errorf("expected typed tag to pass through unchanged")
	}
}

func TestWrapDomainErrorFallsBackToOther(t *testing.T) {
	wrapped := WrapDomainError(errNonTyped{})
	if _, ok := wrapped.(*Other); !ok {
		t.Errorf("expected untyped error to be wrapped in Other, got %T", wrapped)
	}
}

func TestWrapDomainErrorNilIsNil(t *testing.T) {
	if WrapDomainError(nil) != nil {
		t.Errorf("expected nil in, nil out")
	}
}

type errNonTyped struct{}

func (errNonTyped) Error() string { return "generic failure" }
