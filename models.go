package users

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account record the directory operates on.
//
// IsLocked and FailedLoginAttempts are maintained together by the repository:
// IsLocked is true iff the counter has reached the configured threshold. The
// lock is never cleared by the passage of time, only by Unlock.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Nickname          string     `bun:"nickname,notnull,unique" json:"nickname,omitempty"`
	FirstName         string     `bun:"first_name" json:"first_name,omitempty"`
	LastName          string     `bun:"last_name" json:"last_name,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Role              Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	EmailVerified     bool       `bun:"is_email_verified" json:"is_email_verified"`
	IsLocked          bool       `bun:"is_locked" json:"is_locked"`
	FailedLogins      int        `bun:"failed_login_attempts" json:"failed_login_attempts"`
	IsProfessional    bool       `bun:"is_professional" json:"is_professional"`
	ProfessionalAt    *time.Time `bun:"professional_status_updated_at,nullzero" json:"professional_status_updated_at,omitempty"`
	VerificationToken string     `bun:"verification_token,nullzero" json:"-"`
	LastLoginAt       *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an email identifier. Lookups and
// uniqueness both operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LockState reports which side of the lockout state machine the account is on.
func (u *User) LockState() LockState {
	if u.IsLocked {
		return LockStateLocked
	}
	return LockStateOpen
}

// Identity returns the (subject id, role) pair this account resolves to.
func (u *User) Identity() Identity {
	return Identity{
		Subject: u.ID.String(),
		Email:   u.Email,
		Role:    u.Role,
	}
}

// UserUpdate carries the mutable profile fields for directory updates. Nil
// fields are left untouched.
type UserUpdate struct {
	Email     *string `json:"email,omitempty"`
	Nickname  *string `json:"nickname,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *Role   `json:"user_role,omitempty"`
}

// Validate will run validation rules over the set fields.
func (p UserUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, is.Email),
		validation.Field(&p.Nickname, validation.Length(1, 100)),
		validation.Field(&p.Role, validation.By(validRoleValue)),
	)
}

func validRoleValue(value any) error {
	role, ok := value.(*Role)
	if !ok || role == nil {
		return nil
	}
	if _, ok := ParseRole(string(*role)); !ok {
		return errors.New("must be a valid role")
	}
	return nil
}

// Apply copies the set fields onto the record.
func (p UserUpdate) Apply(u *User) {
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Role != nil {
		if role, ok := ParseRole(string(*p.Role)); ok {
			u.Role = role
		}
	}
}
