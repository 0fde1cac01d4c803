package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialStore is the slice of the user directory the authentication flow
// needs: identifier lookup plus the atomic lockout writes.
type CredentialStore interface {
	LockoutStore
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Auther orchestrates credential check, lockout check, and token issuance.
type Auther struct {
	store   CredentialStore
	hasher  PasswordHasher
	tokens  TokenService
	lockout *LockoutGuard
	ttl     time.Duration
	logger  Logger
	sink    ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator builds the login flow from the process configuration.
func NewAuthenticator(store CredentialStore, cfg Config) *Auther {
	return &Auther{
		store:   store,
		hasher:  BcryptHasher{},
		tokens:  NewTokenService(cfg),
		lockout: NewLockoutGuard(store, cfg.GetMaxLoginAttempts()),
		ttl:     cfg.GetAccessTokenTTL(),
		logger:  defLogger{},
		sink:    noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.sink = normalizeActivitySink(sink)
	return s
}

// WithTokenService substitutes the token implementation.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithPasswordHasher substitutes the credential hasher.
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithLockoutGuard substitutes the lockout guard.
func (s *Auther) WithLockoutGuard(guard *LockoutGuard) *Auther {
	if guard != nil {
		s.lockout = guard
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// LockoutGuard returns the lockout guard used by this Authenticator
func (s *Auther) LockoutGuard() *LockoutGuard {
	return s.lockout
}

// Login turns a login attempt into a signed access token or a rejection.
//
// An unknown identifier and a wrong password return the same
// ErrInvalidCredentials value, so responses cannot be used to probe which
// emails have accounts. A locked account returns ErrAccountLocked before any
// hash verification runs.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	email := NormalizeEmail(identifier)

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.emitLoginFailure(ctx, ActorRef{Type: "unknown"}, "", email, ErrInvalidCredentials)
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if s.lockout.State(user) == LockStateLocked {
		s.emitLoginFailure(ctx, actorFromUser(user), user.ID.String(), email, ErrAccountLocked)
		return "", ErrAccountLocked
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		if _, err := s.lockout.RecordFailure(ctx, user); err != nil {
			return "", err
		}

		s.emitLoginFailure(ctx, actorFromUser(user), user.ID.String(), email, ErrInvalidCredentials)
		return "", ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user); err != nil {
		s.logger.Error("failed to reset login attempts", "error", err)
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Role, s.ttl)
	if err != nil {
		return "", err
	}

	recordActivity(ctx, s.sink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     actorFromUser(user),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"identifier": email},
	})

	return token, nil
}

// Authenticate resolves a presented token into an Identity. Every failure
// mode (missing, malformed, tampered, expired) yields ErrUnauthenticated.
func (s *Auther) Authenticate(raw string) (Identity, error) {
	claims, ok := s.tokens.Verify(raw)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	identity, ok := claims.Identity()
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	return identity, nil
}

func (s *Auther) emitLoginFailure(ctx context.Context, actor ActorRef, userID, identifier string, cause error) {
	recordActivity(ctx, s.sink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     actor,
		UserID:    userID,
		Metadata: map[string]any{
			"identifier": identifier,
			"error":      cause.Error(),
		},
	})
}

func actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
