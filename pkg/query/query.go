// Package query parses list query parameters shared by the resource handlers.
// Malformed values are reported as not-ok and callers ignore them.
package query

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const MaxPageSize = 100

// OrderField is one term of an ordering clause. Desc flips the direction.
type OrderField struct {
	Field string
	Desc  bool
}

// Ordering parses a comma separated list of allowed fields, each optionally
// prefixed with "-". Unknown and repeated fields are dropped; if none remain
// the fallback is used. The effective ordering is returned in canonical form.
func Ordering(raw string, allowed map[string]bool, fallback string) ([]OrderField, string) {
	out := orderTerms(raw, allowed)
	if len(out) == 0 {
		out = orderTerms(fallback, allowed)
	}
	terms := make([]string, 0, len(out))
	for _, o := range out {
		if o.Desc {
			terms = append(terms, "-"+o.Field)
		} else {
			terms = append(terms, o.Field)
		}
	}
	return out, strings.Join(terms, ",")
}

func orderTerms(raw string, allowed map[string]bool) []OrderField {
	var out []OrderField
	seen := map[string]bool{}
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		if !allowed[field] || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, OrderField{Field: field, Desc: desc})
	}
	return out
}

// TiebreakDesc reports whether the implicit id tiebreaker should sort
// descending: it follows the direction of the last term.
func TiebreakDesc(ordering []OrderField) bool {
	if len(ordering) == 0 {
		return false
	}
	return ordering[len(ordering)-1].Desc
}

// CompareText orders strings case-insensitively, falling back to byte order
// only between case variants. This approximates a database text collation.
func CompareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// LimitOffset reads optional pagination. A zero limit means no limit.
func LimitOffset(values url.Values) (limit, offset int) {
	if v, ok := Int(values.Get("limit")); ok && v > 0 {
		limit = min(v, MaxPageSize)
	}
	if v, ok := Int(values.Get("offset")); ok && v > 0 {
		offset = v
	}
	return limit, offset
}

// Int parses v as a base-10 integer within the int4 column range. Values
// the database could not bind are rejected.
func Int(v string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	return int(n), err == nil
}

func Int64(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n, err == nil
}

func Bool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// Page slices rows by limit and offset after filtering and sorting.
func Page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// PathID reads a positive integer path value such as {id}.
func PathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
