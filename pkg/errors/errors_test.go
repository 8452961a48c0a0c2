package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeTransactionFailed, cause, "commit loan batch")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeTransactionFailed {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeDocumentUnavailable, "document DOC-001 already loaned")
	outer := Wrap(CodeTransactionFailed, inner, "create loan")

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeTransactionFailed {
		t.Fatalf("unexpected code %s", typed.Code())
	}

	var target *Error
	if !errors.As(outer.Unwrap(), &target) || target.Code() != CodeDocumentUnavailable {
		t.Fatalf("expected inner domain code, got %v", target)
	}
}

func TestMetadataForDomainCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeDocumentUnavailable, http.StatusConflict, false},
		{CodeSequenceExhausted, http.StatusConflict, false},
		{CodeTransactionFailed, http.StatusServiceUnavailable, true},
		{CodeCascadeFailed, http.StatusServiceUnavailable, true},
		{CodeValidation, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}
