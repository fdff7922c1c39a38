package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

// BookRepo provides data access for the books table using sqlx.
type BookRepo struct {
	db *sqlx.DB
}

func NewBookRepo(db *sqlx.DB) *BookRepo { return &BookRepo{db: db} }

const fromJoin = ` FROM books b JOIN authors a ON a.id = b.author_id`

var orderColumns = map[string]string{
	"id":               "b.id",
	"title":            "b.title",
	"publication_year": "b.publication_year",
	"author":           "b.author_id",
}

// List returns one page of books matching q and the total match count.
func (r *BookRepo) List(ctx context.Context, q entity.Query) ([]entity.Book, int, error) {
	where, args := whereClause(q)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*)`+fromJoin+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	stmt := `SELECT b.id, b.title, b.publication_year, b.author_id` + fromJoin + where + orderBy(q.Ordering)
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	books := []entity.Book{}
	if err := r.db.SelectContext(ctx, &books, r.db.Rebind(stmt), args...); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

// ListByAuthors returns the books of the given authors in the default book ordering.
func (r *BookRepo) ListByAuthors(ctx context.Context, authorIDs []int64) ([]entity.Book, error) {
	books := []entity.Book{}
	if len(authorIDs) == 0 {
		return books, nil
	}
	const q = `SELECT id, title, publication_year, author_id FROM books
		WHERE author_id = ANY($1) ORDER BY publication_year DESC, title ASC, id ASC`
	if err := r.db.SelectContext(ctx, &books, q, pq.Array(authorIDs)); err != nil {
		return nil, fmt.Errorf("list books by author: %w", err)
	}
	return books, nil
}

func (r *BookRepo) Get(ctx context.Context, id int64) (*entity.Book, error) {
	const q = `SELECT id, title, publication_year, author_id FROM books WHERE id = $1`
	var b entity.Book
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

func (r *BookRepo) Create(ctx context.Context, b *entity.Book) error {
	const q = `INSERT INTO books (id, title, publication_year, author_id) VALUES (:id, :title, :publication_year, :author_id)`
	if _, err := r.db.NamedExecContext(ctx, q, b); err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return common.ErrNotFound
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *BookRepo) Update(ctx context.Context, b *entity.Book) error {
	const q = `UPDATE books SET title = :title, publication_year = :publication_year, author_id = :author_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, b)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return common.ErrNotFound
		}
		return fmt.Errorf("update book: %w", err)
	}
	return common.ExpectRow(res)
}

func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return common.ExpectRow(res)
}

func whereClause(q entity.Query) (string, []any) {
	var parts []string
	var args []any
	add := func(expr string, vals ...any) {
		parts = append(parts, expr)
		args = append(args, vals...)
	}
	if q.Title != "" {
		add(`b.title ILIKE ?`, database.LikePattern(q.Title))
	}
	if q.TitleExact != "" {
		add(`LOWER(b.title) = LOWER(?)`, q.TitleExact)
	}
	if q.YearMin != nil {
		add(`b.publication_year >= ?`, *q.YearMin)
	}
	if q.YearMax != nil {
		add(`b.publication_year <= ?`, *q.YearMax)
	}
	if q.AuthorID != nil {
		add(`b.author_id = ?`, *q.AuthorID)
	}
	if q.AuthorName != "" {
		add(`a.name ILIKE ?`, database.LikePattern(q.AuthorName))
	}
	if q.AuthorNameExact != "" {
		add(`LOWER(a.name) = LOWER(?)`, q.AuthorNameExact)
	}
	if q.Search != "" {
		p := database.LikePattern(q.Search)
		add(`(b.title ILIKE ? OR a.name ILIKE ?)`, p, p)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func orderBy(ordering []query.OrderField) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		col, ok := orderColumns[o.Field]
		if !ok {
			continue
		}
		terms = append(terms, col+database.Direction(o.Desc))
	}
	terms = append(terms, "b.id"+database.Direction(query.TiebreakDesc(ordering)))
	return " ORDER BY " + strings.Join(terms, ", ")
}
