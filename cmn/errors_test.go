package cmn

import (
	"errors"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: 400,
		KindNotFound:   404,
		KindConflict:   409,
		KindDependency: 503,
		KindInternal:   500,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", kind, got, want)
		}
	}
}

func TestAsErrorPassesThroughCmnError(t *testing.T) {
	original := ErrNotFound("bucket", "my-bucket")
	if got := AsError(original); got != original {
		t.Fatalf("AsError must return the same *Error unchanged")
	}
}

func TestAsErrorWrapsForeignError(t *testing.T) {
	foreign := errors.New("boom")
	wrapped := AsError(foreign)
	if wrapped.Kind != KindInternal {
		t.Fatalf("expected a foreign error to classify as Internal, got %s", wrapped.Kind)
	}
	if !errors.Is(wrapped, foreign) && errors.Unwrap(wrapped) != foreign {
		t.Fatalf("expected the foreign error to be reachable via Unwrap")
	}
}

func TestAsErrorNil(t *testing.T) {
	if AsError(nil) != nil {
		t.Fatalf("AsError(nil) must return nil")
	}
}

func TestErrorResourceIncludedInMessage(t *testing.T) {
	err := ErrConflict("index", "my-index")
	msg := err.Error()
	if msg == "" {
		t.Fatalf("expected a non-empty error message")
	}
	if err.Resource != "my-index" {
		t.Fatalf("expected Resource to be set to the conflicting name")
	}
}
