package users

import "time"

// Defaults used by NewConfig when a field is left at its zero value.
const (
	DefaultMaxLoginAttempts = 3
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 1440 * time.Minute
	DefaultSigningMethod    = "HS256"
)

// SimpleConfig is a concrete Config. Construct it once at process start.
type SimpleConfig struct {
	SigningKey       string
	SigningMethod    string
	Issuer           string
	Audience         []string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	MaxLoginAttempts int
}

var _ Config = (*SimpleConfig)(nil)

// NewConfig returns a SimpleConfig for the given signing key with every other
// field at its default.
func NewConfig(signingKey string) *SimpleConfig {
	cfg := &SimpleConfig{SigningKey: signingKey}
	cfg.setDefaults()
	return cfg
}

func (c *SimpleConfig) setDefaults() {
	if c.SigningMethod == "" {
		c.SigningMethod = DefaultSigningMethod
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.MaxLoginAttempts == 0 {
		c.MaxLoginAttempts = DefaultMaxLoginAttempts
	}
}

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *SimpleConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c *SimpleConfig) GetAccessTokenTTL() time.Duration {
	return c.AccessTokenTTL
}

// GetRefreshTokenTTL is declared for the refresh flow; the core does not
// exercise it.
func (c *SimpleConfig) GetRefreshTokenTTL() time.Duration {
	return c.RefreshTokenTTL
}

func (c *SimpleConfig) GetMaxLoginAttempts() int {
	return c.MaxLoginAttempts
}
