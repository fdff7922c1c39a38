package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

// AuthorRepo provides data access for the authors table using sqlx.
type AuthorRepo struct {
	db *sqlx.DB
}

func NewAuthorRepo(db *sqlx.DB) *AuthorRepo { return &AuthorRepo{db: db} }

const booksCount = `(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id)`

var orderColumns = map[string]string{
	"id":   "a.id",
	"name": "a.name",
}

// List returns one page of authors matching q and the total match count.
func (r *AuthorRepo) List(ctx context.Context, q entity.Query) ([]entity.Author, int, error) {
	where, args := whereClause(q)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM authors a`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	stmt := `SELECT a.id, a.name FROM authors a` + where + orderBy(q.Ordering)
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	authors := []entity.Author{}
	if err := r.db.SelectContext(ctx, &authors, r.db.Rebind(stmt), args...); err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	return authors, total, nil
}

func (r *AuthorRepo) Get(ctx context.Context, id int64) (*entity.Author, error) {
	var a entity.Author
	if err := r.db.GetContext(ctx, &a, `SELECT id, name FROM authors WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &a, nil
}

// AuthorExists reports whether an author with id is stored.
func (r *AuthorRepo) AuthorExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("author exists: %w", err)
	}
	return ok, nil
}

func (r *AuthorRepo) Create(ctx context.Context, a *entity.Author) error {
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO authors (id, name) VALUES (:id, :name)`, a); err != nil {
		return fmt.Errorf("insert author: %w", err)
	}
	return nil
}

func (r *AuthorRepo) Update(ctx context.Context, a *entity.Author) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE authors SET name = :name WHERE id = :id`, a)
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	return common.ExpectRow(res)
}

// Delete removes the author; the books foreign key cascades to its books.
func (r *AuthorRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
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
	if q.Name != "" {
		add(`a.name ILIKE ?`, database.LikePattern(q.Name))
	}
	if q.NameExact != "" {
		add(`LOWER(a.name) = LOWER(?)`, q.NameExact)
	}
	if q.HasBooks != nil {
		if *q.HasBooks {
			add(`EXISTS (SELECT 1 FROM books b WHERE b.author_id = a.id)`)
		} else {
			add(`NOT EXISTS (SELECT 1 FROM books b WHERE b.author_id = a.id)`)
		}
	}
	if q.MinBooks != nil {
		add(booksCount+` >= ?`, *q.MinBooks)
	}
	if q.Search != "" {
		add(`a.name ILIKE ?`, database.LikePattern(q.Search))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func orderBy(ordering []query.OrderField) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		if col, ok := orderColumns[o.Field]; ok {
			terms = append(terms, col+database.Direction(o.Desc))
		}
	}
	terms = append(terms, "a.id"+database.Direction(query.TiebreakDesc(ordering)))
	return " ORDER BY " + strings.Join(terms, ", ")
}
