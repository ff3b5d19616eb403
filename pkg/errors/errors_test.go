package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataStatusesForLedgerCodes(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:            http.StatusBadRequest,
		CodeUnauthorized:          http.StatusUnauthorized,
		CodeForbidden:             http.StatusForbidden,
		CodeNotFound:              http.StatusNotFound,
		CodeIdempotency:           http.StatusConflict,
		CodeRateLimit:             http.StatusTooManyRequests,
		CodeDependency:            http.StatusServiceUnavailable,
		CodeInsufficientStock:     http.StatusConflict,
		CodeSlotFull:              http.StatusConflict,
		CodePaymentExceedsBalance: http.StatusUnprocessableEntity,
		CodeInsufficientFunds:     http.StatusUnprocessableEntity,
		CodeInvalidTransition:     http.StatusUnprocessableEntity,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d got %d", code, status, got)
		}
	}
	if got := MetadataFor("SOMETHING_UNKNOWN").HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", got)
	}
}

func TestPublicMessageHidesInternalText(t *testing.T) {
	internal := Wrap(CodeInternal, stdErrors.New("pq: relation missing"), "load sale")
	if got := internal.PublicMessage(); got != "internal server error" {
		t.Fatalf("internal message leaked: %q", got)
	}

	slot := New(CodeSlotFull, "pickup slot 16:00 on 2026-01-10 is fully booked")
	if got := slot.PublicMessage(); got != slot.Message() {
		t.Fatalf("expected domain message to be exposed, got %q", got)
	}

	empty := New(CodeNotFound, "")
	if got := empty.PublicMessage(); got != "resource not found" {
		t.Fatalf("expected fallback public message, got %q", got)
	}
}

func TestWrapKeepsCauseInChain(t *testing.T) {
	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "load wallet")
	outer := fmt.Errorf("record payment: %w", wrapped)

	if !stdErrors.Is(outer, cause) {
		t.Fatalf("cause lost through wrapping")
	}
	if !Is(outer, CodeDependency) {
		t.Fatalf("expected Is to find dependency code")
	}
	if got := wrapped.Error(); got != "DEPENDENCY_ERROR: load wallet: connection reset" {
		t.Fatalf("unexpected error text %q", got)
	}
	if got := Newf(CodeValidation, "amount %s", "0").Error(); got != "VALIDATION_ERROR: amount 0" {
		t.Fatalf("unexpected Newf text %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("nil error must not be retryable")
	}
	if !IsRetryable(stdErrors.New("timeout")) {
		t.Fatalf("untyped errors are transient")
	}
	if IsRetryable(New(CodePaymentExceedsBalance, "too much")) {
		t.Fatalf("domain rejections are final")
	}
	if !IsRetryable(Wrap(CodeDependency, stdErrors.New("redis down"), "lock")) {
		t.Fatalf("dependency errors should be retryable")
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal || e.Message() != "" || e.Details() != nil || e.Unwrap() != nil {
		t.Fatalf("nil receiver accessors should be safe")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	detailed := New(CodeValidation, "bad").WithDetails(map[string]any{"field": "amount"})
	if detailed.Details().(map[string]any)["field"] != "amount" {
		t.Fatalf("details not preserved")
	}
}
