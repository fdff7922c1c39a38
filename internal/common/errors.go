// Package common holds errors shared by repositories and services.
package common

import (
	"database/sql"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// ExpectRow returns ErrNotFound when res affected no rows.
func ExpectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidationError maps a field name to its human readable messages.
// It serialises as {"field": ["message", ...]}.
type ValidationError map[string][]string

// Add appends a message for field.
func (v ValidationError) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Empty reports whether no field has failed.
func (v ValidationError) Empty() bool { return len(v) == 0 }

// Err returns v as an error, or nil when no field has failed.
func (v ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (ValidationError, bool) {
	var v ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
