package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a registration request. New accounts start as
// ANONYMOUS with an unverified email and one outstanding verification nonce.
type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool
	OnCreated func(*User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	sink   ActivitySink
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer) *RegisterUserHandler {
	if mailer == nil {
		mailer = LogMailer{}
	}

	return &RegisterUserHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrDuplicateEmail
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		nickname, err := resolveNickname(ctx, tx, event.Nickname)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Nickname = nickname
		user.Role = RoleAnonymous
		user.EmailVerified = false
		user.VerificationToken = uuid.NewString()
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// mail runs outside the transaction; a delivery failure must not roll
	// back the account, the nonce can be re-sent
	if err := h.mailer.SendVerification(ctx, user, user.VerificationToken); err != nil {
		h.logger.Warn("failed to send verification mail", "error", err, "user_id", user.ID.String())
	}

	recordActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"email": user.Email},
	})

	if event.OnCreated != nil {
		event.OnCreated(user)
	}

	return nil
}

// resolveNickname keeps the requested handle when free, otherwise generates
// candidates until one is unused.
func resolveNickname(ctx context.Context, tx bun.IDB, requested string) (string, error) {
	candidate := requested

	for attempt := 0; attempt < 10; attempt++ {
		if candidate == "" {
			candidate = GenerateNickname()
		}

		exists, err := tx.NewSelect().
			Model((*User)(nil)).
			Where("?TableAlias.nickname = ?", candidate).
			Exists(ctx)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check nickname uniqueness")
		}

		if !exists {
			return candidate, nil
		}

		if candidate == requested && requested != "" {
			return "", goerrors.New("nickname already exists", goerrors.CategoryConflict).
				WithTextCode("DUPLICATE_NICKNAME").
				WithCode(goerrors.CodeConflict)
		}

		candidate = ""
	}

	return "", goerrors.New("could not generate a unique nickname", goerrors.CategoryInternal)
}
