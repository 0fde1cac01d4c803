package users

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials covers both unknown identifiers and wrong
	// passwords so callers cannot enumerate accounts
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeAccountLocked signals a lockout, deliberately distinguishable
	// from bad credentials
	TextCodeAccountLocked = "ACCOUNT_LOCKED"
	// TextCodeUnauthenticated covers missing, invalid, and expired tokens
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	// TextCodeForbidden signals a valid identity with an insufficient role
	TextCodeForbidden = "FORBIDDEN"
	// TextCodeDuplicateEmail is the registration conflict code
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// TextCodeUserNotFound is returned for operations on nonexistent accounts
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeInvalidVerificationToken covers wrong, consumed, and missing
	// verification tokens
	TextCodeInvalidVerificationToken = "INVALID_VERIFICATION_TOKEN"
)

// ErrInvalidCredentials is returned for unknown identifiers and wrong
// passwords alike; the two cases are never distinguishable to the caller.
var ErrInvalidCredentials = goerrors.New("incorrect email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned when login is attempted against a locked
// account. Surfaced explicitly, trading a minor enumeration risk for
// usability.
var ErrAccountLocked = goerrors.New("account locked due to too many failed login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeForbidden)

// ErrUnauthenticated is returned when a presented token yields no valid claims.
var ErrUnauthenticated = goerrors.New("missing or invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity lacks the role an
// operation requires. Kept distinct from ErrUnauthenticated.
var ErrForbidden = goerrors.New("operation not permitted for role", goerrors.CategoryAuth).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrDuplicateEmail is the registration conflict error.
var ErrDuplicateEmail = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned for operations addressing a nonexistent account.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidVerificationToken is returned when an email verification token is
// wrong, already consumed, or the account has none outstanding.
var ErrInvalidVerificationToken = goerrors.New("invalid or expired verification token", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidVerificationToken).
	WithCode(goerrors.CodeBadRequest)
