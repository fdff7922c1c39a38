package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
)

// RefreshRepo persists opaque refresh tokens in refresh_sessions.
type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

func (r *RefreshRepo) Save(ctx context.Context, token string, id, userID int64, clientID string, expiresAt time.Time) error {
	const query = `INSERT INTO refresh_sessions (token, id, user_id, client_id, expires_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, token, id, userID, clientID, expiresAt); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (r *RefreshRepo) Get(ctx context.Context, token string) (int64, int64, string, time.Time, error) {
	var id int64
	var userID int64
	var clientID string
	var expiresAt time.Time
	query := `SELECT id, user_id, client_id, expires_at FROM refresh_sessions WHERE token = $1`
	row := r.db.QueryRowxContext(ctx, query, token)
	if err := row.Scan(&id, &userID, &clientID, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, "", time.Time{}, common.ErrNotFound
		}
		return 0, 0, "", time.Time{}, err
	}
	return id, userID, clientID, expiresAt, nil
}

// Delete removes the token and reports whether it existed, so that two
// concurrent rotations of one token cannot both succeed.
func (r *RefreshRepo) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpired purges sessions past their expiry.
func (r *RefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
