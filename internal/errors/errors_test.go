package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, inner)

	if err.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if !stderrors.Is(err, inner) {
		t.Error("expected wrapped error to unwrap to the internal error")
	}
	if ErrInternalServer.Internal != nil {
		t.Error("sentinel must not be mutated by Wrap")
	}
}

func TestWithField(t *testing.T) {
	err := WithField(ErrInvalidInput, "target_month", "unknown month code")

	if err.Field != "target_month" {
		t.Errorf("expected field target_month, got %q", err.Field)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.StatusCode)
	}
	if ErrInvalidInput.Field != "" {
		t.Error("sentinel must not be mutated by WithField")
	}
}

func TestWithMessage_KeepsField(t *testing.T) {
	err := WithMessage(ErrDuplicateCategory, "Rent already exists in FEB 2024")
	if err.Field != "category" {
		t.Errorf("expected field category, got %q", err.Field)
	}
	if err.Error() != "Rent already exists in FEB 2024" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
