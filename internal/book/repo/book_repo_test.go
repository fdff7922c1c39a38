package repo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

func newRepo(t *testing.T) (*BookRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestListBuildsFiltersAndOrdering(t *testing.T) {
	r, mock := newRepo(t)
	minYear := 1940
	ordering, _ := query.Ordering("-title", map[string]bool{"title": true}, "")
	q := entity.Query{YearMin: &minYear, Search: "orw", Ordering: ordering, Limit: 10, Offset: 5}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM books b JOIN authors a ON a.id = b.author_id WHERE b.publication_year >= $1 AND (b.title ILIKE $2 OR a.name ILIKE $3)`)).
		WithArgs(1940, "%orw%", "%orw%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY b.title DESC, b.id DESC LIMIT 10 OFFSET 5`)).
		WithArgs(1940, "%orw%", "%orw%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "publication_year", "author_id"}).
			AddRow(2, "Animal Farm", 1945, 1).
			AddRow(1, "1984", 1949, 1))

	books, total, err := r.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, books, 2)
	assert.Equal(t, "Animal Farm", books[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithoutFilters(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books b JOIN authors a ON a.id = b.author_id$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY b.id ASC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "publication_year", "author_id"}))

	books, total, err := r.List(context.Background(), entity.Query{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestGetNotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(`SELECT id, title, publication_year, author_id FROM books WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "publication_year", "author_id"}))

	_, err := r.Get(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreate(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO books \(id, title, publication_year, author_id\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(int64(10), "Dune", 1965, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Create(context.Background(), &entity.Book{ID: 10, Title: "Dune", PublicationYear: 1965, AuthorID: 3})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsForeignKeyViolation(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO books`).
		WillReturnError(&pq.Error{Code: "23503"})

	err := r.Create(context.Background(), &entity.Book{ID: 10, Title: "Dune", PublicationYear: 1965, AuthorID: 404})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateMissingRow(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`UPDATE books SET title = \$1, publication_year = \$2, author_id = \$3 WHERE id = \$4`).
		WithArgs("Dune", 1965, int64(3), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), &entity.Book{ID: 10, Title: "Dune", PublicationYear: 1965, AuthorID: 3})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM books WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), 10))
}

func TestListByAuthorsEmpty(t *testing.T) {
	r, _ := newRepo(t)
	books, err := r.ListByAuthors(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}
