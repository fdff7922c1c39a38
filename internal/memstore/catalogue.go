package memstore

import (
	"cmp"
	"context"
	"slices"

	authorentity "github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

// Books implements the book repository ports.
type Books struct{ s *Store }

func (b *Books) List(_ context.Context, q bookentity.Query) ([]bookentity.Book, int, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	rows := make([]bookentity.Row, 0, len(b.s.books))
	for _, bk := range b.s.books {
		r := bookentity.Row{Book: bk, AuthorName: b.s.authors[bk.AuthorID].Name}
		if q.Match(r) {
			rows = append(rows, r)
		}
	}
	slices.SortFunc(rows, q.Compare)
	total := len(rows)
	rows = query.Page(rows, q.Limit, q.Offset)
	out := make([]bookentity.Book, len(rows))
	for i, r := range rows {
		out[i] = r.Book
	}
	return out, total, nil
}

// ListByAuthors returns the books of the given authors, newest first.
func (b *Books) ListByAuthors(_ context.Context, authorIDs []int64) ([]bookentity.Book, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	want := make(map[int64]bool, len(authorIDs))
	for _, id := range authorIDs {
		want[id] = true
	}
	out := []bookentity.Book{}
	for _, bk := range b.s.books {
		if want[bk.AuthorID] {
			out = append(out, bk)
		}
	}
	slices.SortFunc(out, func(x, y bookentity.Book) int {
		return cmp.Or(
			cmp.Compare(y.PublicationYear, x.PublicationYear),
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.ID, y.ID),
		)
	})
	return out, nil
}

func (b *Books) Get(_ context.Context, id int64) (*bookentity.Book, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	bk, ok := b.s.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &bk, nil
}

func (b *Books) Create(_ context.Context, bk *bookentity.Book) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.authors[bk.AuthorID]; !ok {
		return common.ErrNotFound
	}
	b.s.books[bk.ID] = *bk
	return nil
}

func (b *Books) Update(_ context.Context, bk *bookentity.Book) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.books[bk.ID]; !ok {
		return common.ErrNotFound
	}
	if _, ok := b.s.authors[bk.AuthorID]; !ok {
		return common.ErrNotFound
	}
	b.s.books[bk.ID] = *bk
	return nil
}

func (b *Books) Delete(_ context.Context, id int64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.books[id]; !ok {
		return common.ErrNotFound
	}
	b.s.deleteBookLocked(id)
	return nil
}

// Authors implements the author repository ports.
type Authors struct{ s *Store }

func (a *Authors) List(_ context.Context, q authorentity.Query) ([]authorentity.Author, int, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	counts := map[int64]int{}
	for _, bk := range a.s.books {
		counts[bk.AuthorID]++
	}
	rows := make([]authorentity.Row, 0, len(a.s.authors))
	for _, au := range a.s.authors {
		r := authorentity.Row{Author: au, BooksCount: counts[au.ID]}
		if q.Match(r) {
			rows = append(rows, r)
		}
	}
	slices.SortFunc(rows, q.Compare)
	total := len(rows)
	rows = query.Page(rows, q.Limit, q.Offset)
	out := make([]authorentity.Author, len(rows))
	for i, r := range rows {
		out[i] = r.Author
	}
	return out, total, nil
}

func (a *Authors) Get(_ context.Context, id int64) (*authorentity.Author, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	au, ok := a.s.authors[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &au, nil
}

func (a *Authors) AuthorExists(_ context.Context, id int64) (bool, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	_, ok := a.s.authors[id]
	return ok, nil
}

func (a *Authors) Create(_ context.Context, au *authorentity.Author) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.authors[au.ID] = *au
	return nil
}

func (a *Authors) Update(_ context.Context, au *authorentity.Author) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.authors[au.ID]; !ok {
		return common.ErrNotFound
	}
	a.s.authors[au.ID] = *au
	return nil
}

// Delete removes the author and cascades to its books.
func (a *Authors) Delete(_ context.Context, id int64) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.authors[id]; !ok {
		return common.ErrNotFound
	}
	delete(a.s.authors, id)
	for bid, bk := range a.s.books {
		if bk.AuthorID == id {
			a.s.deleteBookLocked(bid)
		}
	}
	return nil
}
