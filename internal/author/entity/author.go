package entity

import (
	"cmp"
	"strings"

	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

// Author is a row in the authors table.
type Author struct {
	ID   int64  `json:"id,string" db:"id"`
	Name string `json:"name" db:"name"`
}

// Detail is the author payload with its books nested.
type Detail struct {
	Author
	Books      []bookentity.Book `json:"books"`
	BooksCount int               `json:"books_count"`
}

// NewDetail nests books under a, keeping the slice non-nil for JSON.
func NewDetail(a Author, books []bookentity.Book) Detail {
	if books == nil {
		books = []bookentity.Book{}
	}
	return Detail{Author: a, Books: books, BooksCount: len(books)}
}

// Row is an author with its book count, as used by filters.
type Row struct {
	Author
	BooksCount int `db:"books_count"`
}

type Query struct {
	Name      string
	NameExact string
	HasBooks  *bool
	MinBooks  *int
	Search    string
	Ordering  []query.OrderField
	Limit     int
	Offset    int
}

func (q Query) Match(r Row) bool {
	if q.Name != "" && !containsFold(r.Name, q.Name) {
		return false
	}
	if q.NameExact != "" && !strings.EqualFold(r.Name, q.NameExact) {
		return false
	}
	if q.HasBooks != nil && (r.BooksCount > 0) != *q.HasBooks {
		return false
	}
	if q.MinBooks != nil && r.BooksCount < *q.MinBooks {
		return false
	}
	if q.Search != "" && !containsFold(r.Name, q.Search) {
		return false
	}
	return true
}

func (q Query) Compare(a, b Row) int {
	for _, o := range q.Ordering {
		var c int
		switch o.Field {
		case "id":
			c = cmp.Compare(a.ID, b.ID)
		case "name":
			c = query.CompareText(a.Name, b.Name)
		}
		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	if query.TiebreakDesc(q.Ordering) {
		return cmp.Compare(b.ID, a.ID)
	}
	return cmp.Compare(a.ID, b.ID)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
