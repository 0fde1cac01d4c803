package users

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package needs
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the resolved (subject id, role) pair derived from a verified
// access token or a loaded account.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Role    Role   `json:"role"`
}

// Authenticator turns a login attempt into a signed token or a rejection,
// and resolves presented tokens back into identities.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	Authenticate(raw string) (Identity, error)
}

// TokenService issues and verifies signed, time limited bearer tokens.
type TokenService interface {
	Issue(subject string, role Role, ttl time.Duration) (string, error)
	// Verify reports the decoded claims and true for a well formed,
	// correctly signed, unexpired token. Every failure mode returns
	// (nil, false); causes are never distinguished to the caller.
	Verify(raw string) (*Claims, bool)
}

// PasswordHasher hashes credentials and verifies them against stored hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches the stored hash. A malformed
	// stored hash verifies as false, it never surfaces as an error.
	Verify(plaintext, hash string) bool
}

// Mailer delivers verification mail. Template rendering and transport are
// collaborator concerns; the core only hands over the account and its nonce.
type Mailer interface {
	SendVerification(ctx context.Context, user *User, token string) error
}

// Config is the configuration surface consumed by the package. Build one
// concrete value at process start and pass it into the constructors; nothing
// in the core reads ambient state.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetMaxLoginAttempts() int
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
