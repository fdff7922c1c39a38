package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_hash, password_algo, date_of_birth, profile_photo,
	is_staff, is_superuser, status, login_failed_attempts, locked_until, last_login_at, created_at, updated_at`

// Create inserts a new user row. A duplicate username yields common.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, password_hash, password_algo, date_of_birth, is_staff, is_superuser, status)
		VALUES (:id, :username, :email, :password_hash, :password_algo, :date_of_birth, :is_staff, :is_superuser, :status)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		if database.HasCode(err, database.UniqueViolation) {
			return common.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the first user with a case-insensitively equal email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) ORDER BY id LIMIT 1`, email)
}

// GetByUsername fetches by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UserExists reports whether a user with id is stored.
func (r *UserRepo) UserExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return ok, nil
}

// GetMinimalAuthView returns only the fields needed for token claim hydration.
func (r *UserRepo) GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error) {
	const q = `SELECT id, username, is_staff, is_superuser FROM users WHERE id = $1 AND status = 'active'`
	var v entity.MinimalAuthView
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get auth view: %w", err)
	}
	return &v, nil
}

// IncrementFailedLogin increments the failure counter atomically and returns new value.
func (r *UserRepo) IncrementFailedLogin(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE users SET login_failed_attempts = login_failed_attempts + 1, updated_at = NOW() WHERE id = $1 RETURNING login_failed_attempts`
	var v int
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return 0, err
	}
	return v, nil
}

// LockIfThreshold locks the user if attempts >= threshold and currently active.
func (r *UserRepo) LockIfThreshold(ctx context.Context, id int64, threshold int, lockMinutes int) (bool, error) {
	const q = `UPDATE users SET status = 'locked', locked_until = NOW() + ($2 || ' minutes')::interval, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND login_failed_attempts >= $3 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, lockMinutes, threshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResetLoginSuccess resets failure metrics on successful authentication.
func (r *UserRepo) ResetLoginSuccess(ctx context.Context, id int64) error {
	const q = `UPDATE users SET login_failed_attempts = 0, last_login_at = NOW(), locked_until = NULL, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// UnlockIfExpired sets status back to active if locked_until passed.
func (r *UserRepo) UnlockIfExpired(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE users SET status = 'active', locked_until = NULL, login_failed_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND status = 'locked' AND locked_until IS NOT NULL AND locked_until < NOW() RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateProfile writes the self-service fields: email and date of birth.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET email = $2, date_of_birth = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.Email, u.DateOfBirth)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return common.ExpectRow(res)
}

// SetPhoto stores the object key of the user's profile photo.
func (r *UserRepo) SetPhoto(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET profile_photo = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set photo: %w", err)
	}
	return common.ExpectRow(res)
}

// UpdatePassword updates password hash & algo.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string) error {
	const q = `UPDATE users SET password_hash = $2, password_algo = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, hash, algo)
	return err
}
