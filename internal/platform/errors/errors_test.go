package errors

import (
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeCooldown, http.StatusTooManyRequests},
		{ErrorCodeInvalidTransition, http.StatusConflict},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeDispatchFailed, http.StatusBadGateway},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatusCode(tc.code); got != tc.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := Cooldownf("too soon")
	wrapped := Wrap(err, ErrorCodeUnknown, "outer context")

	if !IsCode(wrapped, ErrorCodeUnknown) {
		t.Fatalf("outer code lost: %v", wrapped)
	}
	// the original code is still discoverable through the chain
	if CodeOf(err) != ErrorCodeCooldown {
		t.Fatalf("CodeOf inner = %v", CodeOf(err))
	}
}

func TestRetryableUnavailable(t *testing.T) {
	if !Retryable(Unavailablef("provider down")) {
		t.Fatalf("unavailable should be retryable")
	}
	if Retryable(InvalidArgf("bad input")) {
		t.Fatalf("invalid argument should not be retryable")
	}
	if Retryable(DispatchFailedf("gave up")) {
		t.Fatalf("dispatch failed should not be retryable")
	}
}

func TestSugarCodes(t *testing.T) {
	if !IsCode(InvalidTransitionf("no"), ErrorCodeInvalidTransition) {
		t.Fatalf("InvalidTransitionf code mismatch")
	}
	if !IsCode(NotFoundf("missing"), ErrorCodeNotFound) {
		t.Fatalf("NotFoundf code mismatch")
	}
	if !IsCode(Cooldownf("wait"), ErrorCodeCooldown) {
		t.Fatalf("Cooldownf code mismatch")
	}
}
