package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	fk := &pq.Error{Code: ForeignKeyViolation}
	assert.True(t, HasCode(fk, ForeignKeyViolation))
	assert.True(t, HasCode(fmt.Errorf("insert: %w", fk), ForeignKeyViolation))
	assert.False(t, HasCode(fk, UniqueViolation))
	assert.False(t, HasCode(errors.New("boom"), ForeignKeyViolation))
	assert.False(t, HasCode(nil, UniqueViolation))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, LikePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, LikePattern(`a\b`))
	assert.Equal(t, `%%`, LikePattern(""))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, " DESC", Direction(true))
	assert.Equal(t, " ASC", Direction(false))
}
