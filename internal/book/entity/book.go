package entity

import (
	"cmp"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

// Book is a row in the books table.
type Book struct {
	ID              int64  `json:"id,string" db:"id"`
	Title           string `json:"title" db:"title"`
	PublicationYear int    `json:"publication_year" db:"publication_year"`
	AuthorID        int64  `json:"author,string" db:"author_id"`
}

// Row is a book joined with its author's name, as used by filters and search.
type Row struct {
	Book
	AuthorName string `db:"author_name"`
}

// Query is the parsed form of a list request. Zero values mean "not set".
type Query struct {
	Title           string
	TitleExact      string
	YearMin         *int
	YearMax         *int
	AuthorID        *int64
	AuthorName      string
	AuthorNameExact string
	Search          string
	Ordering        []query.OrderField
	Limit           int
	Offset          int
}

// Match reports whether r satisfies every filter and the search term in q.
func (q Query) Match(r Row) bool {
	if q.Title != "" && !containsFold(r.Title, q.Title) {
		return false
	}
	if q.TitleExact != "" && !strings.EqualFold(r.Title, q.TitleExact) {
		return false
	}
	if q.YearMin != nil && r.PublicationYear < *q.YearMin {
		return false
	}
	if q.YearMax != nil && r.PublicationYear > *q.YearMax {
		return false
	}
	if q.AuthorID != nil && r.AuthorID != *q.AuthorID {
		return false
	}
	if q.AuthorName != "" && !containsFold(r.AuthorName, q.AuthorName) {
		return false
	}
	if q.AuthorNameExact != "" && !strings.EqualFold(r.AuthorName, q.AuthorNameExact) {
		return false
	}
	if q.Search != "" && !containsFold(r.Title, q.Search) && !containsFold(r.AuthorName, q.Search) {
		return false
	}
	return true
}

// Compare orders a before b following q.Ordering. Ties break on id in the
// direction of the last term, so negating a single-field ordering reverses it.
func (q Query) Compare(a, b Row) int {
	for _, o := range q.Ordering {
		var c int
		switch o.Field {
		case "id":
			c = cmp.Compare(a.ID, b.ID)
		case "title":
			c = query.CompareText(a.Title, b.Title)
		case "publication_year":
			c = cmp.Compare(a.PublicationYear, b.PublicationYear)
		case "author":
			c = cmp.Compare(a.AuthorID, b.AuthorID)
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
