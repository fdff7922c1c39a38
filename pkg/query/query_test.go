package query

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var fields = map[string]bool{"title": true, "publication_year": true, "id": true}

func TestOrdering(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "-publication_year,title"},
		{"title", "title"},
		{"-title, publication_year", "-title,publication_year"},
		{"bogus,-id", "-id"},
		{"bogus", "-publication_year,title"},
		{"title,-title", "title"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, got := Ordering(tt.raw, fields, "-publication_year,title")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTiebreakDesc(t *testing.T) {
	assert.False(t, TiebreakDesc(nil))
	o, _ := Ordering("-title", fields, "")
	assert.True(t, TiebreakDesc(o))
	o, _ = Ordering("-title,id", fields, "")
	assert.False(t, TiebreakDesc(o))
}

func TestCompareText(t *testing.T) {
	assert.Negative(t, CompareText("apple", "Zebra"))
	assert.Positive(t, CompareText("Zebra", "apple"))
	assert.Negative(t, CompareText("Apple", "apple"))
	assert.Zero(t, CompareText("same", "same"))
}

func TestLimitOffset(t *testing.T) {
	l, o := LimitOffset(url.Values{"limit": {"500"}, "offset": {"3"}})
	assert.Equal(t, MaxPageSize, l)
	assert.Equal(t, 3, o)

	l, o = LimitOffset(url.Values{"limit": {"x"}, "offset": {"-2"}})
	assert.Zero(t, l)
	assert.Zero(t, o)
}

func TestIntStaysInColumnRange(t *testing.T) {
	n, ok := Int(" -2147483648 ")
	assert.True(t, ok)
	assert.Equal(t, -2147483648, n)
	_, ok = Int("2147483648")
	assert.False(t, ok)
	_, ok = Int("99999999999")
	assert.False(t, ok)
}

func TestBool(t *testing.T) {
	v, ok := Bool("True")
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = Bool("0")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = Bool("maybe")
	assert.False(t, ok)
}

func TestPage(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{2, 3}, Page(rows, 2, 1))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Page(rows, 0, 0))
	assert.Equal(t, []int{}, Page(rows, 2, 9))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/books/12/", nil)
	r.SetPathValue("id", "12")
	id, ok := PathID(r, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	r.SetPathValue("id", "abc")
	_, ok = PathID(r, "id")
	assert.False(t, ok)
}
