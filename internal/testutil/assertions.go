package testutil

import (
	"errors"
	"testing"

	apperrors "wallet/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAppErrorKind checks that err classifies as kind.
func AssertAppErrorKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Errorf("expected a %s error, got %s: %v", kind, got, err)
	}
}
