package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorUnwrapsToKind(t *testing.T) {
	err := NotFound("video", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFound must unwrap to ErrNotFound")
	}

	wrapped := fmt.Errorf("handling request: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("AppError must survive wrapping")
	}
	if appErr.Message != "video abc not found" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation("username", "email")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("Validation must unwrap to ErrValidation")
	}
	if len(err.Fields) != 2 || err.Fields[0] != "username" {
		t.Fatalf("unexpected fields %v", err.Fields)
	}
}
