package repo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

func newRepo(t *testing.T) (*AuthorRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthorRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestListWithBookCountFilters(t *testing.T) {
	r, mock := newRepo(t)
	has := true
	minBooks := 2
	ordering, _ := query.Ordering("name", map[string]bool{"name": true}, "")
	q := entity.Query{HasBooks: &has, MinBooks: &minBooks, Ordering: ordering}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM authors a WHERE EXISTS (SELECT 1 FROM books b WHERE b.author_id = a.id) AND (SELECT COUNT(*) FROM books b WHERE b.author_id = a.id) >= $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT a.id, a.name FROM authors a WHERE`) + `.*` + regexp.QuoteMeta(`ORDER BY a.name ASC, a.id ASC`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "George Orwell"))

	authors, total, err := r.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []entity.Author{{ID: 1, Name: "George Orwell"}}, authors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorExists(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := r.AuthorExists(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetNotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(`SELECT id, name FROM authors WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := r.Get(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM authors WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Delete(context.Background(), 5), common.ErrNotFound)
}

func TestCreate(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO authors \(id, name\) VALUES \(\$1, \$2\)`).
		WithArgs(int64(1), "Ursula K. Le Guin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Create(context.Background(), &entity.Author{ID: 1, Name: "Ursula K. Le Guin"}))
}
