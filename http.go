package users

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// IdentityContextKey is the router locals key the middleware stores the
// resolved Identity under.
const IdentityContextKey = "identity"

// AuthScheme is the expected prefix of the Authorization header.
const AuthScheme = "Bearer"

// RouteAuthenticator adapts an Authenticator to router middleware. Tokens
// travel in the Authorization header; there is no cookie or session state.
type RouteAuthenticator struct {
	auth         Authenticator
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = DefaultErrorHandler

	return a
}

// ProtectedRoute authenticates the bearer token and stores the resolved
// Identity both in router locals and on the request context, so handlers and
// anything downstream of them can recover it.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			raw := bearerToken(c.Header("Authorization"))
			if raw == "" {
				return errorHandler(c, ErrUnauthenticated)
			}

			identity, err := a.auth.Authenticate(raw)
			if err != nil {
				a.Logger.Info("token rejected", "path", c.Path())
				return errorHandler(c, err)
			}

			c.Locals(IdentityContextKey, identity)
			c.SetContext(WithIdentity(c.Context(), identity))

			return hf(c)
		}
	}
}

// RequireRoles gates a route behind the given role set. It must run after
// ProtectedRoute; a missing identity is treated as unauthenticated rather
// than forbidden.
func (a *RouteAuthenticator) RequireRoles(allowed ...Role) router.MiddlewareFunc {
	check := RequireRole(allowed...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, ok := IdentityFromRouterContext(c)
			if !ok {
				return a.ErrorHandler(c, ErrUnauthenticated)
			}

			if err := check(identity); err != nil {
				a.Logger.Info(
					"role rejected",
					"role", string(identity.Role),
					"path", c.Path(),
				)
				return a.ErrorHandler(c, err)
			}

			return hf(c)
		}
	}
}

// IdentityFromRouterContext recovers the Identity stored by ProtectedRoute.
func IdentityFromRouterContext(c router.Context) (Identity, bool) {
	if identity, ok := c.Locals(IdentityContextKey).(Identity); ok {
		return identity, true
	}
	return IdentityFromContext(c.Context())
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthScheme) {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// DefaultErrorHandler renders any error as a JSON envelope. Structured
// errors keep their status code and text code; everything else collapses to
// an opaque 500 so internals never leak to clients.
func DefaultErrorHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}
	if richErr.Category == goerrors.CategoryValidation && len(richErr.Metadata) > 0 {
		body["details"] = richErr.Metadata
	}

	return c.JSON(status, body)
}
