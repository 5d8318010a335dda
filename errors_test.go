package chiron

import (
	"errors"
	"strings"
	"testing"
)

func TestBackendErrorWrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &BackendError{Op: "complete", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not unwrappable")
	}
	if !strings.Contains(err.Error(), "complete") || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestMaxIterationsErrorCarriesPartialText(t *testing.T) {
	err := &MaxIterationsError{Limit: 5, Partial: "got this far"}
	if !strings.Contains(err.Error(), "5") {
		t.Fatalf("limit missing from message: %q", err.Error())
	}
	var maxErr *MaxIterationsError
	if !errors.As(error(err), &maxErr) || maxErr.Partial != "got this far" {
		t.Fatalf("partial text lost: %+v", maxErr)
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	err := &ProtocolError{Reason: "tool call without id or name"}
	if !strings.Contains(err.Error(), "protocol violation") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
