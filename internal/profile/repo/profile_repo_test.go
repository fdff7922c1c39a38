package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
)

func newRepo(t *testing.T) (*ProfileRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProfileRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateIgnoresExisting(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(int64(1), "Member").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Create(context.Background(), &entity.UserProfile{UserID: 1, Role: entity.RoleMember}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissing(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(`SELECT user_id, role FROM user_profiles`).WithArgs(int64(2)).WillReturnError(sql.ErrNoRows)

	_, err := r.Get(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetRoleUnknownUser(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`DO UPDATE SET role = EXCLUDED.role`).
		WithArgs(int64(3), "Admin").
		WillReturnError(&pq.Error{Code: "23503"})

	assert.ErrorIs(t, r.SetRole(context.Background(), 3, entity.RoleAdmin), common.ErrNotFound)
}
