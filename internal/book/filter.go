package book

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

const (
	DefaultOrdering = "-publication_year,title"
	recentYears     = 10
)

// Applied records which parts of a list request took effect. It is echoed
// back in the list envelope's meta object.
type Applied struct {
	Filters  bool   `json:"filters_applied"`
	Search   bool   `json:"search_applied"`
	Ordering string `json:"ordering"`
}

// filterFunc applies one query parameter to q and reports whether the value
// was usable. Malformed values return false and leave q untouched.
type filterFunc func(q *entity.Query, value string, currentYear int) bool

var filters = []struct {
	param string
	apply filterFunc
}{
	{"title", func(q *entity.Query, v string, _ int) bool { q.Title = v; return true }},
	{"title_exact", func(q *entity.Query, v string, _ int) bool { q.TitleExact = v; return true }},
	{"publication_year", func(q *entity.Query, v string, _ int) bool {
		y, ok := query.Int(v)
		if ok {
			raiseMin(q, y)
			lowerMax(q, y)
		}
		return ok
	}},
	{"publication_year_min", yearMin},
	{"year_from", yearMin},
	{"publication_year_max", yearMax},
	{"year_to", yearMax},
	{"author", func(q *entity.Query, v string, _ int) bool {
		id, ok := query.Int64(v)
		if ok {
			q.AuthorID = &id
		}
		return ok
	}},
	{"author_name", func(q *entity.Query, v string, _ int) bool { q.AuthorName = v; return true }},
	{"author_name_exact", func(q *entity.Query, v string, _ int) bool { q.AuthorNameExact = v; return true }},
	{"decade", func(q *entity.Query, v string, _ int) bool {
		start, ok := parseDecade(v)
		if ok {
			raiseMin(q, start)
			lowerMax(q, start+9)
		}
		return ok
	}},
	{"has_recent_publication", func(q *entity.Query, v string, year int) bool {
		recent, ok := query.Bool(v)
		if !ok {
			return false
		}
		if recent {
			raiseMin(q, year-recentYears)
		} else {
			lowerMax(q, year-recentYears-1)
		}
		return true
	}},
}

// OrderFields lists the fields a client may order books by.
var OrderFields = map[string]bool{
	"id":               true,
	"title":            true,
	"publication_year": true,
	"author":           true,
}

// ParseQuery turns list query parameters into a Query. Unknown parameters and
// malformed values are ignored. currentYear anchors has_recent_publication.
func ParseQuery(values url.Values, currentYear int) (entity.Query, Applied) {
	var q entity.Query
	var applied Applied
	for _, f := range filters {
		v := strings.TrimSpace(values.Get(f.param))
		if v == "" {
			continue
		}
		if f.apply(&q, v, currentYear) {
			applied.Filters = true
		}
	}
	if s := strings.TrimSpace(values.Get("search")); s != "" {
		q.Search = s
		applied.Search = true
	}
	q.Ordering, applied.Ordering = query.Ordering(values.Get("ordering"), OrderFields, DefaultOrdering)
	q.Limit, q.Offset = query.LimitOffset(values)
	return q, applied
}

func yearMin(q *entity.Query, v string, _ int) bool {
	y, ok := query.Int(v)
	if ok {
		raiseMin(q, y)
	}
	return ok
}

func yearMax(q *entity.Query, v string, _ int) bool {
	y, ok := query.Int(v)
	if ok {
		lowerMax(q, y)
	}
	return ok
}

// raiseMin narrows the lower year bound; bounds from several parameters intersect.
func raiseMin(q *entity.Query, y int) {
	if q.YearMin == nil || y > *q.YearMin {
		q.YearMin = &y
	}
}

func lowerMax(q *entity.Query, y int) {
	if q.YearMax == nil || y < *q.YearMax {
		q.YearMax = &y
	}
}

// parseDecade accepts "1940s" through "2020s".
func parseDecade(v string) (int, bool) {
	if len(v) != 5 || v[4] != 's' {
		return 0, false
	}
	start, err := strconv.Atoi(v[:4])
	if err != nil || start%10 != 0 || start < 1940 || start > 2020 {
		return 0, false
	}
	return start, true
}
