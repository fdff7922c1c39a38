package author

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

func newTestService() (*Service, *memstore.Store) {
	store := memstore.New()
	return NewService(store.Authors(), store.Books()), store
}

func strp(s string) *string { return &s }

func addBook(t *testing.T, store *memstore.Store, author int64, title string, year int) bookentity.Book {
	t.Helper()
	b := bookentity.Book{ID: utilities.NewID(), Title: title, PublicationYear: year, AuthorID: author}
	require.NoError(t, store.Books().Create(context.Background(), &b))
	return b
}

func TestCreateValidatesName(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), Input{})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"This field is required."}, verr["name"])

	_, err = svc.Create(context.Background(), Input{Name: strp("   ")})
	verr, ok = common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"This field may not be blank."}, verr["name"])

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(context.Background(), Input{Name: strp(string(long))})
	_, ok = common.AsValidation(err)
	assert.True(t, ok)
}

func TestGetNestsBooksNewestFirst(t *testing.T) {
	svc, store := newTestService()
	a, err := svc.Create(context.Background(), Input{Name: strp("N. K. Jemisin")})
	require.NoError(t, err)
	assert.Empty(t, a.Books)
	assert.NotNil(t, a.Books)

	addBook(t, store, a.ID, "The Fifth Season", 2015)
	addBook(t, store, a.ID, "The Stone Sky", 2017)

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, got.Books, 2)
	assert.Equal(t, 2, got.BooksCount)
	assert.Equal(t, "The Stone Sky", got.Books[0].Title)
}

func TestDeleteCascadesToBooks(t *testing.T) {
	svc, store := newTestService()
	a, err := svc.Create(context.Background(), Input{Name: strp("Gene Wolfe")})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), Input{Name: strp("Jack Vance")})
	require.NoError(t, err)
	doomed := addBook(t, store, a.ID, "Shadow of the Torturer", 1980)
	kept := addBook(t, store, other.ID, "The Dying Earth", 1950)

	require.NoError(t, svc.Delete(context.Background(), a.ID))

	_, err = store.Books().Get(context.Background(), doomed.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Books().Get(context.Background(), kept.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListFiltersAndOrdering(t *testing.T) {
	svc, store := newTestService()
	names := []string{"Connie Willis", "Becky Chambers", "Arkady Martine"}
	ids := map[string]int64{}
	for _, n := range names {
		a, err := svc.Create(context.Background(), Input{Name: strp(n)})
		require.NoError(t, err)
		ids[n] = a.ID
	}
	addBook(t, store, ids["Becky Chambers"], "Record of a Spaceborn Few", 2018)

	has := true
	withBooks, total, err := svc.List(context.Background(), entity.Query{HasBooks: &has})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Becky Chambers", withBooks[0].Name)

	asc, _, err := svc.List(context.Background(), entity.Query{Ordering: []query.OrderField{{Field: "name"}}})
	require.NoError(t, err)
	desc, _, err := svc.List(context.Background(), entity.Query{Ordering: []query.OrderField{{Field: "name", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	for i := range asc {
		assert.Equal(t, asc[i].ID, desc[2-i].ID)
	}
	assert.Equal(t, "Arkady Martine", asc[0].Name)

	_, err = svc.Create(context.Background(), Input{Name: strp("bell hooks")})
	require.NoError(t, err)
	asc, _, err = svc.List(context.Background(), entity.Query{Ordering: []query.OrderField{{Field: "name"}}})
	require.NoError(t, err)
	assert.Equal(t, "bell hooks", asc[2].Name)

	none, total, err := svc.List(context.Background(), entity.Query{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)
}

func TestDecodeInput(t *testing.T) {
	in, err := DecodeInput([]byte(`{"name":"Le Guin"}`))
	require.NoError(t, err)
	assert.Equal(t, "Le Guin", *in.Name)

	_, err = DecodeInput([]byte(`{"name":null}`))
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"This field may not be null."}, verr["name"])

	_, err = DecodeInput([]byte(`{"name":7}`))
	_, ok = common.AsValidation(err)
	assert.True(t, ok)

	_, err = DecodeInput([]byte(`not json`))
	assert.Error(t, err)
	_, ok = common.AsValidation(err)
	assert.False(t, ok)
}
