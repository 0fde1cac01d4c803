package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UnlockAccountMessage is the explicit administrative action that clears a
// lockout; nothing else transitions LOCKED back to OPEN.
type UnlockAccountMessage struct {
	UserID     uuid.UUID `json:"user_id"`
	Actor      ActorRef
	OnUnlocked func(*User)
}

func (e UnlockAccountMessage) Type() string { return "user.unlock" }

type UnlockAccountHandler struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

func NewUnlockAccountHandler(repo RepositoryManager) *UnlockAccountHandler {
	return &UnlockAccountHandler{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (h *UnlockAccountHandler) WithLogger(logger Logger) *UnlockAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UnlockAccountHandler) WithActivitySink(sink ActivitySink) *UnlockAccountHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *UnlockAccountHandler) Execute(ctx context.Context, event UnlockAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account unlock")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UnlockAccountHandler) execute(ctx context.Context, event UnlockAccountMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().UnlockTx(ctx, tx, event.UserID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unlock account")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account unlock transaction failed")
	}

	recordActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventAccountUnlocked,
		Actor:     event.Actor,
		UserID:    user.ID.String(),
	})

	if event.OnUnlocked != nil {
		event.OnUnlocked(user)
	}

	return nil
}
