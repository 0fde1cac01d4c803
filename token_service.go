package users

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// JWTTokenService implements TokenService over HS256 signed JWTs
type JWTTokenService struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

var _ TokenService = (*JWTTokenService)(nil)

// TokenServiceOption customizes token service construction
type TokenServiceOption func(*JWTTokenService)

// WithTokenClock injects a custom clock (useful for tests)
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger overrides the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService from the process configuration
func NewTokenService(cfg Config, opts ...TokenServiceOption) *JWTTokenService {
	ts := &JWTTokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Issue signs a token embedding the subject id, the canonical role, the
// issuance instant, and expiry at issued-at + ttl.
func (ts *JWTTokenService) Issue(subject string, role Role, ttl time.Duration) (string, error) {
	canonical, ok := ParseRole(string(role))
	if !ok {
		return "", goerrors.New("cannot issue token for unknown role", goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": string(role)})
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserRole: canonical.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify recomputes the signature and checks expiry. A tampered signature, a
// malformed structure, an unknown role, and an elapsed expiry all report
// (nil, false); the causes are never distinguished.
func (ts *JWTTokenService) Verify(raw string) (*Claims, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, false
	}

	// a token carrying a role outside the enumeration never becomes claims
	if _, ok := claims.Role(); !ok {
		return nil, false
	}

	return claims, true
}
