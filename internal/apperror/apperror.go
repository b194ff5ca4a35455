package apperror

import "errors"

// Sentinel errors for every failure kind the service layer can produce.
// Handlers map these to HTTP status codes with errors.Is — nothing below
// the handler layer knows about HTTP.
var (
	ErrValidation = errors.New("validation error")

	// ErrDuplicate: registration with an email that is already taken.
	ErrDuplicate = errors.New("duplicate identity")

	// ErrInvalidCredentials covers BOTH "unknown email" and "wrong
	// password". The two cases are deliberately indistinguishable so the
	// login endpoint can't be used to enumerate registered emails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated: missing/malformed/expired token, or a valid
	// token whose subject no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFoundOrForbidden is the deliberately collapsed "not found"
	// error: a snippet that doesn't exist and a snippet owned by someone
	// else produce the exact same failure. A non-owner can never learn
	// whether a given ID exists.
	ErrNotFoundOrForbidden = errors.New("not found")
)

// AppError carries a human-readable message alongside the sentinel kind.
// It implements error and Unwrap, so errors.Is(err, ErrValidation) walks
// through it to the sentinel.
type AppError struct {
	Err     error  // sentinel kind (one of the vars above)
	Message string // human-readable error message, safe to show to clients
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports a malformed or missing request field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateIdentity reports a registration conflict on the email address.
func DuplicateIdentity() *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: "an account with this email already exists",
	}
}

// InvalidCredentials reports a failed login. The message is a constant:
// callers must not be able to tell an unknown email from a wrong password.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

// Unauthenticated reports a request that failed the access guard.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// NotFoundOrForbidden reports a snippet operation that matched no row —
// either the ID doesn't exist or the requester isn't the owner. One
// message for both, so existence never leaks.
func NotFoundOrForbidden() *AppError {
	return &AppError{
		Err:     ErrNotFoundOrForbidden,
		Message: "snippet not found",
	}
}
