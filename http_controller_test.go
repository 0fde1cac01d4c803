package users_test

import (
	"context"
	"net/http"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, captured *error) (*users.UsersController, users.RepositoryManager) {
	t.Helper()

	repo := setupRepoManager(t)
	auther := users.NewAuthenticator(
		repo.Users().(users.CredentialStore),
		newTestConfig(),
	)

	controller := users.NewUsersController(func(c *users.UsersController) *users.UsersController {
		c.Repo = repo
		c.Auther = auther
		c.BaseURL = "https://api.example.com"
		c.ErrorHandler = captureErrorHandler(captured)
		return c
	})

	return controller, repo
}

func registerAccount(t *testing.T, repo users.RepositoryManager, email, password string) *users.User {
	t.Helper()

	var created *users.User
	err := users.NewRegisterUserHandler(repo, users.LogMailer{}).Execute(context.Background(), users.RegisterUserMessage{
		Email:     email,
		Password:  password,
		OnCreated: func(u *users.User) { created = u },
	})
	require.NoError(t, err)
	return created
}

func TestControllerLoginPost(t *testing.T) {
	var captured error
	controller, repo := newTestController(t, &captured)

	registerAccount(t, repo, "login@example.com", "password123")

	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.LoginRequest)
			payload.Email = "login@example.com"
			payload.Password = "password123"
		}).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.TokenResponse) bool {
			return body.AccessToken != "" && body.TokenType == "bearer"
		})).Return(nil).Once()

		err := controller.LoginPost(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("wrong password surfaces invalid credentials", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.LoginRequest)
			payload.Email = "login@example.com"
			payload.Password = "wrongpass"
		}).Return(nil)
		mockCtx.On("Context").Return(context.Background())

		err := controller.LoginPost(mockCtx)

		require.NoError(t, err)
		assert.ErrorIs(t, captured, users.ErrInvalidCredentials)
	})

	t.Run("missing email fails validation before any lookup", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.LoginRequest)
			payload.Password = "password123"
		}).Return(nil)

		err := controller.LoginPost(mockCtx)

		require.NoError(t, err)
		assert.Error(t, captured)
	})
}

func TestControllerRegistrationCreate(t *testing.T) {
	var captured error
	controller, _ := newTestController(t, &captured)

	t.Run("creates the account and returns links", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.RegistrationCreatePayload)
			payload.FirstName = "Ada"
			payload.Email = "ada@example.com"
			payload.Password = "analytical-engine"
		}).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusCreated, mock.MatchedBy(func(body users.UserResource) bool {
			return body.User.Email == "ada@example.com" && len(body.Links) == 3
		})).Return(nil).Once()

		err := controller.RegistrationCreate(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces the conflict", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.RegistrationCreatePayload)
			payload.Email = "ada@example.com"
			payload.Password = "other-password"
		}).Return(nil)
		mockCtx.On("Context").Return(context.Background())

		err := controller.RegistrationCreate(mockCtx)

		require.NoError(t, err)
		assert.ErrorIs(t, captured, users.ErrDuplicateEmail)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)

		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*users.RegistrationCreatePayload)
			payload.Email = "short@example.com"
			payload.Password = "short"
		}).Return(nil)

		err := controller.RegistrationCreate(mockCtx)

		require.NoError(t, err)
		assert.Error(t, captured)
	})
}

func TestControllerVerifyEmail(t *testing.T) {
	var captured error
	controller, repo := newTestController(t, &captured)

	created := registerAccount(t, repo, "verify@example.com", "password123")

	t.Run("valid nonce verifies the account", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Param", "token").Return(created.VerificationToken)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.Anything).Return(nil).Once()

		err := controller.VerifyEmail(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
	})

	t.Run("replay is rejected", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Param", "token").Return(created.VerificationToken)
		mockCtx.On("Context").Return(context.Background())

		err := controller.VerifyEmail(mockCtx)

		require.NoError(t, err)
		assert.ErrorIs(t, captured, users.ErrInvalidVerificationToken)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return("not-a-uuid")

		err := controller.VerifyEmail(mockCtx)

		require.NoError(t, err)
		assert.ErrorIs(t, captured, users.ErrInvalidVerificationToken)
	})
}

func TestControllerDirectory(t *testing.T) {
	var captured error
	controller, repo := newTestController(t, &captured)

	created := registerAccount(t, repo, "directory@example.com", "password123")

	t.Run("show returns the record with links", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.UserResource) bool {
			return body.User.ID == created.ID && len(body.Links) == 3
		})).Return(nil).Once()

		err := controller.Show(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("show of unknown account reports user not found", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(uuid.NewString())
		mockCtx.On("Context").Return(context.Background())

		err := controller.Show(mockCtx)

		require.NoError(t, err)
		assert.ErrorIs(t, captured, users.ErrUserNotFound)
	})

	t.Run("update patches the record", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			patch := args.Get(0).(*users.UserUpdate)
			first := "Margaret"
			patch.FirstName = &first
		}).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.UserResource) bool {
			return body.User.FirstName == "Margaret"
		})).Return(nil).Once()

		err := controller.Update(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("list returns a hypermedia page", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("QueryInt", "skip", 0).Return(0)
		mockCtx.On("QueryInt", "limit", 10).Return(10)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.UserPage) bool {
			return body.Total >= 1 && body.Page == 1 && len(body.Links) >= 3
		})).Return(nil).Once()

		err := controller.List(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("remove deletes and answers no content", func(t *testing.T) {
		captured = nil
		victim := registerAccount(t, repo, "victim@example.com", "password123")

		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(victim.ID.String())
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("NoContent", http.StatusNoContent).Return(nil).Once()

		err := controller.Remove(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("upgrade marks the account professional", func(t *testing.T) {
		captured = nil
		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Locals", users.IdentityContextKey).Return(users.Identity{
			Subject: uuid.NewString(),
			Role:    users.RoleManager,
		})
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.UserResource) bool {
			return body.User.IsProfessional
		})).Return(nil).Once()

		err := controller.Upgrade(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})

	t.Run("unlock clears a locked account", func(t *testing.T) {
		captured = nil

		for i := 0; i < 3; i++ {
			_, err := repo.Users().TrackFailedLogin(context.Background(), created.ID, 3)
			require.NoError(t, err)
		}

		mockCtx := new(MockContext)
		mockCtx.On("Param", "id").Return(created.ID.String())
		mockCtx.On("Locals", users.IdentityContextKey).Return(users.Identity{
			Subject: uuid.NewString(),
			Role:    users.RoleAdmin,
		})
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", http.StatusOK, mock.MatchedBy(func(body users.UserResource) bool {
			return !body.User.IsLocked
		})).Return(nil).Once()

		err := controller.Unlock(mockCtx)

		require.NoError(t, err)
		require.NoError(t, captured)
		mockCtx.AssertExpectations(t)
	})
}
