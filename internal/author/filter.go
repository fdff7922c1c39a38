package author

import (
	"net/url"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
)

const DefaultOrdering = "name"

var OrderFields = map[string]bool{"id": true, "name": true}

type Applied struct {
	Filters  bool   `json:"filters_applied"`
	Search   bool   `json:"search_applied"`
	Ordering string `json:"ordering"`
}

// ParseQuery turns author list parameters into a Query, ignoring malformed values.
func ParseQuery(values url.Values) (entity.Query, Applied) {
	var q entity.Query
	var applied Applied
	if v := strings.TrimSpace(values.Get("name")); v != "" {
		q.Name = v
		applied.Filters = true
	}
	if v := strings.TrimSpace(values.Get("name_exact")); v != "" {
		q.NameExact = v
		applied.Filters = true
	}
	if v, ok := query.Bool(values.Get("has_books")); ok {
		q.HasBooks = &v
		applied.Filters = true
	}
	if v, ok := query.Int(values.Get("min_books")); ok {
		q.MinBooks = &v
		applied.Filters = true
	}
	if v := strings.TrimSpace(values.Get("search")); v != "" {
		q.Search = v
		applied.Search = true
	}
	q.Ordering, applied.Ordering = query.Ordering(values.Get("ordering"), OrderFields, DefaultOrdering)
	q.Limit, q.Offset = query.LimitOffset(values)
	return q, applied
}
