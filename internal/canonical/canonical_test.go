package canonical

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{NotFound, http.StatusNotFound},
		{InvalidArgument, http.StatusBadRequest},
		{PermissionDenied, http.StatusForbidden},
		{FailedPrecondition, http.StatusPreconditionFailed},
		{DeadlineExceeded, http.StatusGatewayTimeout},
		{Misconfigured, http.StatusInternalServerError},
		{UpstreamUnavailable, http.StatusBadGateway},
		{UpstreamInvalidResponse, http.StatusBadGateway},
		{InternalRender, http.StatusInternalServerError},
		{Unknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Run("direct error", func(t *testing.T) {
		if got := KindOf(New(NotFound, "gone")); got != NotFound {
			t.Errorf("got %v", got)
		}
	})

	t.Run("wrapped in a chain", func(t *testing.T) {
		err := fmt.Errorf("while composing: %w", New(DeadlineExceeded, "too slow"))
		if got := KindOf(err); got != DeadlineExceeded {
			t.Errorf("got %v", got)
		}
	})

	t.Run("foreign error is unknown", func(t *testing.T) {
		if got := KindOf(errors.New("plain")); got != Unknown {
			t.Errorf("got %v", got)
		}
	})
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(NotFound, "The requested device does not exist.")); got != "The requested device does not exist." {
		t.Errorf("got %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "It's unclear what happened, but it was not good." {
		t.Errorf("got fallback %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(UpstreamUnavailable, "Fetching failed.", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost from the chain")
	}
	if got := err.Error(); got != "upstream_unavailable: Fetching failed.: connection reset" {
		t.Errorf("got %q", got)
	}
}
