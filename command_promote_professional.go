package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PromoteProfessionalMessage flips the professional-status flag on an
// account. Role gating happens at the guard layer before the command runs.
type PromoteProfessionalMessage struct {
	UserID       uuid.UUID `json:"user_id"`
	Professional bool      `json:"professional"`
	Actor        ActorRef
	OnUpdated    func(*User)
}

func (e PromoteProfessionalMessage) Type() string { return "user.promote_professional" }

type PromoteProfessionalHandler struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

func NewPromoteProfessionalHandler(repo RepositoryManager) *PromoteProfessionalHandler {
	return &PromoteProfessionalHandler{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (h *PromoteProfessionalHandler) WithLogger(logger Logger) *PromoteProfessionalHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PromoteProfessionalHandler) WithActivitySink(sink ActivitySink) *PromoteProfessionalHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *PromoteProfessionalHandler) Execute(ctx context.Context, event PromoteProfessionalMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during professional promotion")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PromoteProfessionalHandler) execute(ctx context.Context, event PromoteProfessionalMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().SetProfessionalTx(ctx, tx, event.UserID, event.Professional)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update professional status")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "professional promotion transaction failed")
	}

	recordActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventUserPromoted,
		Actor:     event.Actor,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"professional": event.Professional},
	})

	if event.OnUpdated != nil {
		event.OnUpdated(user)
	}

	return nil
}
