package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LockState is the lockout guard's per-account state.
type LockState string

const (
	// LockStateOpen accepts login attempts (failed attempts below threshold)
	LockStateOpen LockState = "open"
	// LockStateLocked rejects login attempts before credential verification
	LockStateLocked LockState = "locked"
)

// LockoutStore is the storage surface the guard needs. Implementations MUST
// apply TrackFailedLogin as one atomic statement: the counter increment and
// the lock flag flip happen together, so two concurrent failures cannot both
// observe count == threshold-1 and leave the account unlocked.
type LockoutStore interface {
	TrackFailedLogin(ctx context.Context, id uuid.UUID, threshold int) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) (*User, error)
	Unlock(ctx context.Context, id uuid.UUID) (*User, error)
}

// LockoutGuard tracks failed login attempts per account and flips an account
// into the locked state once the threshold is reached.
//
// The state machine has two states. OPEN: failed attempts below threshold,
// IsLocked false. LOCKED: failed attempts at or above threshold, IsLocked
// true. Lockout is monotone; time passing never reopens an account, only
// Unlock does.
type LockoutGuard struct {
	store     LockoutStore
	threshold int
	logger    Logger
	sink      ActivitySink
}

// LockoutGuardOption customizes guard construction
type LockoutGuardOption func(*LockoutGuard)

// WithLockoutLogger overrides the logger
func WithLockoutLogger(logger Logger) LockoutGuardOption {
	return func(g *LockoutGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLockoutActivitySink sets the sink receiving lock/unlock events
func WithLockoutActivitySink(sink ActivitySink) LockoutGuardOption {
	return func(g *LockoutGuard) {
		g.sink = normalizeActivitySink(sink)
	}
}

// NewLockoutGuard builds a guard for the given threshold. A non-positive
// threshold falls back to DefaultMaxLoginAttempts.
func NewLockoutGuard(store LockoutStore, threshold int, opts ...LockoutGuardOption) *LockoutGuard {
	if threshold <= 0 {
		threshold = DefaultMaxLoginAttempts
	}

	g := &LockoutGuard{
		store:     store,
		threshold: threshold,
		logger:    defLogger{},
		sink:      noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Threshold returns the configured failed-attempt ceiling
func (g *LockoutGuard) Threshold() int {
	return g.threshold
}

// State reports which state the account currently occupies
func (g *LockoutGuard) State(user *User) LockState {
	if user == nil {
		return LockStateOpen
	}
	return user.LockState()
}

// RecordFailure registers a failed credential check. The increment and the
// OPEN -> LOCKED transition are one storage statement; the returned state
// reflects the account after the write.
func (g *LockoutGuard) RecordFailure(ctx context.Context, user *User) (LockState, error) {
	updated, err := g.store.TrackFailedLogin(ctx, user.ID, g.threshold)
	if err != nil {
		return g.State(user), goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track login attempt")
	}

	*user = *updated

	state := g.State(user)
	if state == LockStateLocked {
		recordActivity(ctx, g.sink, g.logger, ActivityEvent{
			EventType: ActivityEventAccountLocked,
			Actor:     ActorRef{Type: "system"},
			UserID:    user.ID.String(),
			Metadata: map[string]any{
				"failed_login_attempts": user.FailedLogins,
				"threshold":             g.threshold,
			},
		})
	}

	return state, nil
}

// RecordSuccess resets the failure counter after a successful credential
// check and stamps the last-login timestamp. It does not touch the lock
// flag; locked accounts never reach a successful credential check.
func (g *LockoutGuard) RecordSuccess(ctx context.Context, user *User) error {
	updated, err := g.store.TrackSuccessfulLogin(ctx, user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track successful login")
	}

	*user = *updated
	return nil
}

// Unlock clears LOCKED -> OPEN on explicit administrative action, resetting
// the counter to zero.
func (g *LockoutGuard) Unlock(ctx context.Context, actor ActorRef, user *User) (*User, error) {
	updated, err := g.store.Unlock(ctx, user.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unlock account")
	}

	recordActivity(ctx, g.sink, g.logger, ActivityEvent{
		EventType: ActivityEventAccountUnlocked,
		Actor:     actor,
		UserID:    user.ID.String(),
	})

	*user = *updated
	return user, nil
}
