package users

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterUserRoutes mounts the account endpoints on the given router.
// Registration, login, and email verification are public; the directory
// endpoints require a MANAGER or ADMIN bearer token, and unlock requires
// ADMIN.
func RegisterUserRoutes[T any](app router.Router[T], opts ...UsersControllerOption) {

	controller := NewUsersController(opts...)

	protect := controller.Middleware.ProtectedRoute(controller.ErrorHandler)
	staff := controller.Middleware.RequireRoles(RoleManager, RoleAdmin)
	admin := controller.Middleware.RequireRoles(RoleAdmin)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("users.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("users.login")

	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("users.verify-email")

	app.Get(controller.Routes.Users, protect(staff(controller.List))).
		SetName("users.list")
	app.Post(controller.Routes.Users, protect(staff(controller.Create))).
		SetName("users.create")

	app.Get(controller.Routes.User, protect(staff(controller.Show))).
		SetName("users.show")
	app.Put(controller.Routes.User, protect(staff(controller.Update))).
		SetName("users.update")
	app.Delete(controller.Routes.User, protect(staff(controller.Remove))).
		SetName("users.delete")

	app.Post(controller.Routes.Upgrade, protect(staff(controller.Upgrade))).
		SetName("users.upgrade")

	app.Post(controller.Routes.Unlock, protect(admin(controller.Unlock))).
		SetName("users.unlock")
}

type UsersControllerRoutes struct {
	Register    string
	Login       string
	VerifyEmail string
	Users       string
	User        string
	Upgrade     string
	Unlock      string
}

type UsersController struct {
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Mailer       Mailer
	Sink         ActivitySink
	Middleware   *RouteAuthenticator
	Routes       *UsersControllerRoutes
	BaseURL      string
	ErrorHandler func(router.Context, error) error
}

type UsersControllerOption func(*UsersController) *UsersController

func NewUsersController(opts ...UsersControllerOption) *UsersController {
	c := &UsersController{
		Logger:       defLogger{},
		Sink:         noopActivitySink{},
		Mailer:       LogMailer{},
		ErrorHandler: DefaultErrorHandler,
		Routes: &UsersControllerRoutes{
			Register:    "/register",
			Login:       "/login",
			VerifyEmail: "/verify-email/:id/:token",
			Users:       "/users",
			User:        "/users/:id",
			Upgrade:     "/users/:id/upgrade",
			Unlock:      "/users/:id/unlock",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in users controller...")
	}

	if c.Middleware == nil {
		c.Middleware = NewHTTPAuthenticator(c.Auther)
		c.Middleware.ErrorHandler = c.ErrorHandler
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// TokenResponse is the login success envelope.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *UsersController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// RegistrationCreatePayload is the self-service sign up payload.
type RegistrationCreatePayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Nickname  string `form:"nickname" json:"nickname"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
		validation.Field(&r.Nickname, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *UsersController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	var created *User
	registerUser := NewRegisterUserHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Nickname:  payload.Nickname,
		Email:     payload.Email,
		Password:  payload.Password,
		OnCreated: func(u *User) { created = u },
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, a.userResource(created))
}

func (a *UsersController) VerifyEmail(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrInvalidVerificationToken)
	}

	var verified *User
	verify := NewVerifyEmailHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	err = verify.Execute(ctx.Context(), VerifyEmailMessage{
		UserID:     id,
		Token:      ctx.Param("token"),
		OnVerified: func(u *User) { verified = u },
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    a.userResource(verified),
	})
}

func (a *UsersController) List(ctx router.Context) error {
	skip := ctx.QueryInt("skip", 0)
	limit := ctx.QueryInt("limit", 10)

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	total, err := a.Repo.Users().Count(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	items, err := a.Repo.Users().List(ctx.Context(), skip, limit)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserPage(a.BaseURL, items, total, skip, limit))
}

func (a *UsersController) Create(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	var created *User
	registerUser := NewRegisterUserHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Nickname:  payload.Nickname,
		Email:     payload.Email,
		Password:  payload.Password,
		OnCreated: func(u *User) { created = u },
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, a.userResource(created))
}

func (a *UsersController) Show(ctx router.Context) error {
	id, err := a.pathID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, a.mapNotFound(err))
	}

	return ctx.JSON(http.StatusOK, a.userResource(user))
}

func (a *UsersController) Update(ctx router.Context) error {
	id, err := a.pathID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	patch := new(UserUpdate)
	if err := ctx.Bind(patch); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	if err := patch.Validate(); err != nil {
		return a.ErrorHandler(ctx, invalidPayload(err))
	}

	user, err := a.Repo.Users().UpdateProfile(ctx.Context(), id, *patch)
	if err != nil {
		return a.ErrorHandler(ctx, a.mapNotFound(err))
	}

	return ctx.JSON(http.StatusOK, a.userResource(user))
}

func (a *UsersController) Remove(ctx router.Context) error {
	id, err := a.pathID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Users().Remove(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, a.mapNotFound(err))
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (a *UsersController) Upgrade(ctx router.Context) error {
	id, err := a.pathID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var updated *User
	promote := NewPromoteProfessionalHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	err = promote.Execute(ctx.Context(), PromoteProfessionalMessage{
		UserID:       id,
		Professional: true,
		Actor:        a.actor(ctx),
		OnUpdated:    func(u *User) { updated = u },
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, a.userResource(updated))
}

func (a *UsersController) Unlock(ctx router.Context) error {
	id, err := a.pathID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var unlocked *User
	unlock := NewUnlockAccountHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	err = unlock.Execute(ctx.Context(), UnlockAccountMessage{
		UserID:     id,
		Actor:      a.actor(ctx),
		OnUnlocked: func(u *User) { unlocked = u },
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, a.userResource(unlocked))
}

// UserResource is a User plus its hypermedia links.
type UserResource struct {
	*User
	Links []Link `json:"links"`
}

func (a *UsersController) userResource(user *User) UserResource {
	return UserResource{
		User:  user,
		Links: UserLinks(a.BaseURL, user.ID),
	}
}

func (a *UsersController) pathID(ctx router.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (a *UsersController) actor(ctx router.Context) ActorRef {
	if identity, ok := IdentityFromRouterContext(ctx); ok {
		return ActorRef{ID: identity.Subject, Type: "user"}
	}
	return ActorRef{Type: "system"}
}

func (a *UsersController) mapNotFound(err error) error {
	if goerrors.IsNotFound(err) {
		return ErrUserNotFound
	}
	return err
}

func invalidPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("invalid payload: %s", err)).
		WithCode(goerrors.CodeBadRequest)
}
