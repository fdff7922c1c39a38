package book

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryDefaults(t *testing.T) {
	q, applied := ParseQuery(url.Values{}, 2025)

	assert.False(t, applied.Filters)
	assert.False(t, applied.Search)
	assert.Equal(t, "-publication_year,title", applied.Ordering)
	require.Len(t, q.Ordering, 2)
	assert.True(t, q.Ordering[0].Desc)
	assert.Nil(t, q.YearMin)
	assert.Nil(t, q.YearMax)
}

func TestParseQueryYearBoundsIntersect(t *testing.T) {
	v := url.Values{
		"publication_year_min": {"1900"},
		"year_from":            {"1950"},
		"year_to":              {"2000"},
		"decade":               {"1990s"},
	}
	q, applied := ParseQuery(v, 2025)

	assert.True(t, applied.Filters)
	require.NotNil(t, q.YearMin)
	require.NotNil(t, q.YearMax)
	assert.Equal(t, 1990, *q.YearMin)
	assert.Equal(t, 1999, *q.YearMax)
}

func TestParseQueryIgnoresMalformed(t *testing.T) {
	v := url.Values{
		"publication_year":       {"nineteen"},
		"author":                 {"abc"},
		"decade":                 {"1890s"},
		"has_recent_publication": {"perhaps"},
		"limit":                  {"-1"},
		"unknown":                {"x"},
	}
	q, applied := ParseQuery(v, 2025)

	assert.False(t, applied.Filters)
	assert.Nil(t, q.YearMin)
	assert.Nil(t, q.AuthorID)
	assert.Zero(t, q.Limit)
}

func TestParseQueryIgnoresYearsOutsideColumnRange(t *testing.T) {
	v := url.Values{
		"publication_year_min": {"99999999999"},
		"year_to":              {"-3000000000"},
		"publication_year":     {"2147483648"},
	}
	q, applied := ParseQuery(v, 2025)

	assert.False(t, applied.Filters)
	assert.Nil(t, q.YearMin)
	assert.Nil(t, q.YearMax)
}

func TestParseQueryRecentPublication(t *testing.T) {
	q, _ := ParseQuery(url.Values{"has_recent_publication": {"true"}}, 2025)
	require.NotNil(t, q.YearMin)
	assert.Equal(t, 2015, *q.YearMin)

	q, _ = ParseQuery(url.Values{"has_recent_publication": {"false"}}, 2025)
	require.NotNil(t, q.YearMax)
	assert.Equal(t, 2014, *q.YearMax)
}

func TestParseQuerySearchAndAuthor(t *testing.T) {
	q, applied := ParseQuery(url.Values{"search": {" orwell "}, "author": {"7"}, "ordering": {"-title"}}, 2025)

	assert.True(t, applied.Search)
	assert.True(t, applied.Filters)
	assert.Equal(t, "orwell", q.Search)
	require.NotNil(t, q.AuthorID)
	assert.Equal(t, int64(7), *q.AuthorID)
	assert.Equal(t, "-title", applied.Ordering)
}
