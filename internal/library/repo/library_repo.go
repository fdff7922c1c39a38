package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/library/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
)

// LibraryRepo stores libraries, their book links and librarians.
type LibraryRepo struct {
	db *sqlx.DB
}

func NewLibraryRepo(db *sqlx.DB) *LibraryRepo { return &LibraryRepo{db: db} }

func (r *LibraryRepo) List(ctx context.Context) ([]entity.Detail, error) {
	libs := []entity.Library{}
	if err := r.db.SelectContext(ctx, &libs, `SELECT id, name FROM libraries ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	out := make([]entity.Detail, 0, len(libs))
	if len(libs) == 0 {
		return out, nil
	}
	ids := make([]int64, len(libs))
	for i, l := range libs {
		ids[i] = l.ID
	}

	var links []struct {
		LibraryID int64 `db:"library_id"`
		BookID    int64 `db:"book_id"`
	}
	if err := r.db.SelectContext(ctx, &links,
		`SELECT library_id, book_id FROM library_books WHERE library_id = ANY($1) ORDER BY book_id`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list library books: %w", err)
	}
	books := map[int64][]int64{}
	for _, l := range links {
		books[l.LibraryID] = append(books[l.LibraryID], l.BookID)
	}

	var staff []entity.Librarian
	if err := r.db.SelectContext(ctx, &staff,
		`SELECT id, name, library_id FROM librarians WHERE library_id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list librarians: %w", err)
	}
	byLib := map[int64]*entity.Librarian{}
	for i := range staff {
		byLib[staff[i].LibraryID] = &staff[i]
	}

	for _, l := range libs {
		l.Books = books[l.ID]
		if l.Books == nil {
			l.Books = []int64{}
		}
		out = append(out, entity.Detail{Library: l, Librarian: byLib[l.ID]})
	}
	return out, nil
}

func (r *LibraryRepo) Get(ctx context.Context, id int64) (*entity.Detail, error) {
	var l entity.Library
	if err := r.db.GetContext(ctx, &l, `SELECT id, name FROM libraries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get library: %w", err)
	}
	l.Books = []int64{}
	if err := r.db.SelectContext(ctx, &l.Books,
		`SELECT book_id FROM library_books WHERE library_id = $1 ORDER BY book_id`, id); err != nil {
		return nil, fmt.Errorf("get library books: %w", err)
	}
	d := entity.Detail{Library: l}
	var lib entity.Librarian
	err := r.db.GetContext(ctx, &lib, `SELECT id, name, library_id FROM librarians WHERE library_id = $1`, id)
	switch {
	case err == nil:
		d.Librarian = &lib
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get librarian: %w", err)
	}
	return &d, nil
}

func (r *LibraryRepo) Create(ctx context.Context, l *entity.Library) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO libraries (id, name) VALUES (:id, :name)`, l); err != nil {
			return fmt.Errorf("insert library: %w", err)
		}
		return linkBooks(ctx, tx, l.ID, l.Books)
	})
}

// Update rewrites the name and replaces the book set.
func (r *LibraryRepo) Update(ctx context.Context, l *entity.Library) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `UPDATE libraries SET name = :name WHERE id = :id`, l)
		if err != nil {
			return fmt.Errorf("update library: %w", err)
		}
		if err := common.ExpectRow(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM library_books WHERE library_id = $1`, l.ID); err != nil {
			return fmt.Errorf("clear library books: %w", err)
		}
		return linkBooks(ctx, tx, l.ID, l.Books)
	})
}

func (r *LibraryRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete library: %w", err)
	}
	return common.ExpectRow(res)
}

// SetLibrarian upserts the one librarian of a library.
func (r *LibraryRepo) SetLibrarian(ctx context.Context, l *entity.Librarian) error {
	const q = `INSERT INTO librarians (id, name, library_id) VALUES (:id, :name, :library_id)
		ON CONFLICT (library_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, q, l)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return common.ErrNotFound
		}
		return fmt.Errorf("set librarian: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&l.ID); err != nil {
			return fmt.Errorf("scan librarian: %w", err)
		}
	}
	return rows.Err()
}

func linkBooks(ctx context.Context, tx *sqlx.Tx, libraryID int64, books []int64) error {
	if len(books) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO library_books (library_id, book_id) SELECT $1, UNNEST($2::BIGINT[]) ON CONFLICT DO NOTHING`,
		libraryID, pq.Array(books))
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return common.ValidationError{"books": {"One or more books do not exist."}}
		}
		return fmt.Errorf("link books: %w", err)
	}
	return nil
}

func (r *LibraryRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
