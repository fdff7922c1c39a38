package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

func newRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateDuplicateUsername(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := r.Create(context.Background(), &entity.User{ID: 1, Username: "ann", Status: entity.StatusActive})
	assert.ErrorIs(t, err, common.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailIsCaseInsensitive(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(email) = LOWER($1) ORDER BY id LIMIT 1`)).
		WithArgs("Ann@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "status"}).
			AddRow(3, "ann", "ann@example.com", entity.StatusActive))

	u, err := r.GetByEmail(context.Background(), "Ann@Example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := r.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLockIfThreshold(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(`UPDATE users SET status = 'locked'`).
		WithArgs(int64(1), 15, 6).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`UPDATE users SET status = 'locked'`).
		WithArgs(int64(2), 15, 6).
		WillReturnError(sql.ErrNoRows)

	locked, err := r.LockIfThreshold(context.Background(), 1, 6, 15)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = r.LockIfThreshold(context.Background(), 2, 6, 15)
	require.NoError(t, err)
	assert.False(t, locked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPhotoMissingUser(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`UPDATE users SET profile_photo`).
		WithArgs(int64(4), "k").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.SetPhoto(context.Background(), 4, "k"), common.ErrNotFound)
}
