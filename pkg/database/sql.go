package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// SQLSTATE codes repositories translate into domain errors.
const (
	ForeignKeyViolation = "23503"
	UniqueViolation     = "23505"
)

// HasCode reports whether err wraps a Postgres error with the given SQLSTATE.
func HasCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps s for a substring ILIKE, escaping LIKE metacharacters.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Direction renders an ORDER BY direction with a leading space.
func Direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}
