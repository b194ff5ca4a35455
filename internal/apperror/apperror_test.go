package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "DuplicateIdentity wraps ErrDuplicate",
			err:       DuplicateIdentity(),
			target:    ErrDuplicate,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials(),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("missing token"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "NotFoundOrForbidden wraps ErrNotFoundOrForbidden",
			err:       NotFoundOrForbidden(),
			target:    ErrNotFoundOrForbidden,
			wantMatch: true,
		},
		{
			name:      "DuplicateIdentity does NOT match ErrValidation",
			err:       DuplicateIdentity(),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "NotFoundOrForbidden does NOT match ErrUnauthenticated",
			err:       NotFoundOrForbidden(),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// The wrapped sentinel must survive another layer of fmt.Errorf("%w") —
// that's how service-layer errors travel up to the handlers.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating snippet: %w", NotFoundOrForbidden())

	if !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Error("errors.Is should match ErrNotFoundOrForbidden through an fmt.Errorf wrap")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should extract *AppError through an fmt.Errorf wrap")
	}
	if appErr.Message != "snippet not found" {
		t.Errorf("Message = %q, want %q", appErr.Message, "snippet not found")
	}
}

// Two separate InvalidCredentials failures must be byte-identical —
// unknown email and wrong password may not be distinguishable.
func TestInvalidCredentials_ConstantMessage(t *testing.T) {
	a := InvalidCredentials()
	b := InvalidCredentials()

	if a.Error() != b.Error() {
		t.Errorf("InvalidCredentials messages differ: %q vs %q", a.Error(), b.Error())
	}
}

func TestNotFoundOrForbidden_DoesNotMentionOwnership(t *testing.T) {
	// The collapsed error must read like a plain "not found" — wording that
	// hints at "not yours" would leak that the record exists.
	err := NotFoundOrForbidden()
	if err.Error() != "snippet not found" {
		t.Errorf("Error() = %q, want %q", err.Error(), "snippet not found")
	}
}

func TestUnwrap(t *testing.T) {
	err := DuplicateIdentity()
	if unwrapped := err.Unwrap(); unwrapped != ErrDuplicate {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrDuplicate)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
