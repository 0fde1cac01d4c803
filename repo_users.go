package users

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// The lockout writes are single conditional UPDATE statements so the counter
// increment and the lock flag flip are one atomic storage operation; two
// concurrent failed attempts can never both observe threshold-1 and leave
// the account unlocked.
var TrackFailedLoginSQL = `UPDATE "users" AS "usr"
SET
	"failed_login_attempts" = "usr"."failed_login_attempts" + 1,
	"is_locked" = ("usr"."failed_login_attempts" + 1 >= ?),
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var TrackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"failed_login_attempts" = 0,
	"last_login_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var UnlockUserSQL = `UPDATE "users" AS "usr"
SET
	"failed_login_attempts" = 0,
	"is_locked" = FALSE,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ConsumeVerificationTokenSQL clears the nonce in the same statement that
// checks it, making the token single use even under concurrent verification
// calls. Verified anonymous accounts graduate to AUTHENTICATED.
var ConsumeVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"verification_token" = NULL,
	"is_email_verified" = TRUE,
	"user_role" = CASE WHEN "usr"."user_role" = 'ANONYMOUS' THEN 'AUTHENTICATED' ELSE "usr"."user_role" END,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."id" = ?
AND "usr"."verification_token" = ?
RETURNING *;`

var SetProfessionalSQL = `UPDATE "users" AS "usr"
SET
	"is_professional" = ?,
	"professional_status_updated_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the user directory: role gated CRUD plus the authentication
// writes the lockout guard and verification flow rely on.
type Users interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	List(ctx context.Context, skip, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
	Remove(ctx context.Context, id uuid.UUID) error

	UpdateProfile(ctx context.Context, id uuid.UUID, patch UserUpdate) (*User, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch UserUpdate) (*User, error)

	TrackFailedLogin(ctx context.Context, id uuid.UUID, threshold int) (*User, error)
	TrackFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, threshold int) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) (*User, error)
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	Unlock(ctx context.Context, id uuid.UUID) (*User, error)
	UnlockTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)

	ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (*User, error)
	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error)

	SetProfessional(ctx context.Context, id uuid.UUID, professional bool) (*User, error)
	SetProfessionalTx(ctx context.Context, tx bun.IDB, id uuid.UUID, professional bool) (*User, error)
}

type userRepo struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users           = (*userRepo)(nil)
	_ CredentialStore = (*userRepo)(nil)
)

// NewUsersRepository builds the bun backed user directory
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &userRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *userRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *userRepo) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *userRepo) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *userRepo) List(ctx context.Context, skip, limit int) ([]*User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}

	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	return records, err
}

func (a *userRepo) Count(ctx context.Context) (int, error) {
	return a.db.NewSelect().Model((*User)(nil)).Count(ctx)
}

// Remove soft deletes the record; bun stamps deleted_at.
func (a *userRepo) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *userRepo) TrackFailedLogin(ctx context.Context, id uuid.UUID, threshold int) (*User, error) {
	return a.TrackFailedLoginTx(ctx, a.db, id, threshold)
}

func (a *userRepo) TrackFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, threshold int) (*User, error) {
	return a.rawOne(ctx, tx, TrackFailedLoginSQL, threshold, time.Now(), id.String())
}

func (a *userRepo) TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.TrackSuccessfulLoginTx(ctx, a.db, id)
}

func (a *userRepo) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	now := time.Now()
	return a.rawOne(ctx, tx, TrackSuccessfulLoginSQL, now, now, id.String())
}

func (a *userRepo) Unlock(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.UnlockTx(ctx, a.db, id)
}

func (a *userRepo) UnlockTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return a.rawOne(ctx, tx, UnlockUserSQL, time.Now(), id.String())
}

func (a *userRepo) ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return a.ConsumeVerificationTokenTx(ctx, a.db, id, token)
}

func (a *userRepo) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}

	user, err := a.rawOne(ctx, tx, ConsumeVerificationTokenSQL, time.Now(), id.String(), token)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// wrong nonce, already consumed, or no account: one signal
			return nil, ErrInvalidVerificationToken
		}
		return nil, err
	}

	return user, nil
}

func (a *userRepo) SetProfessional(ctx context.Context, id uuid.UUID, professional bool) (*User, error) {
	return a.SetProfessionalTx(ctx, a.db, id, professional)
}

func (a *userRepo) SetProfessionalTx(ctx context.Context, tx bun.IDB, id uuid.UUID, professional bool) (*User, error) {
	now := time.Now()
	return a.rawOne(ctx, tx, SetProfessionalSQL, professional, now, now, id.String())
}

func (a *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch UserUpdate) (*User, error) {
	return a.UpdateProfileTx(ctx, a.db, id, patch)
}

func (a *userRepo) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch UserUpdate) (*User, error) {
	record := new(User)
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	patch.Apply(record)
	now := time.Now()
	record.UpdatedAt = &now

	if _, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	return record, nil
}

func (a *userRepo) rawOne(ctx context.Context, tx bun.IDB, query string, args ...any) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound()
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = RoleAnonymous
	}
}
