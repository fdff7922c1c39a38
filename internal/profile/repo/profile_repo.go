package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
)

type ProfileRepo struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Create stores a profile unless the user already has one.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.UserProfile) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO user_profiles (user_id, role) VALUES (:user_id, :role) ON CONFLICT (user_id) DO NOTHING`, p)
	if err != nil {
		return mapFK(err, "insert profile")
	}
	return nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	var p entity.UserProfile
	if err := r.db.GetContext(ctx, &p, `SELECT user_id, role FROM user_profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// SetRole upserts the user's role.
func (r *ProfileRepo) SetRole(ctx context.Context, userID int64, role string) error {
	const q = `INSERT INTO user_profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`
	if _, err := r.db.ExecContext(ctx, q, userID, role); err != nil {
		return mapFK(err, "set role")
	}
	return nil
}

func mapFK(err error, op string) error {
	if database.HasCode(err, database.ForeignKeyViolation) {
		return common.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
