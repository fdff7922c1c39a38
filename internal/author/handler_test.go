package author

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

func newTestMux() *http.ServeMux {
	svc, _ := newTestService()
	h := NewHandler(svc, utilities.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /authors/{$}", h.List)
	mux.HandleFunc("POST /authors/{$}", h.CreateBare)
	mux.HandleFunc("GET /authors/{id}/{$}", h.Retrieve)
	mux.HandleFunc("PUT /authors/{id}/{$}", h.UpdateBare)
	mux.HandleFunc("DELETE /authors/{id}/{$}", h.DeleteBare)
	mux.HandleFunc("POST /authors/create/{$}", h.Create)
	mux.HandleFunc("DELETE /authors/{id}/delete/{$}", h.Delete)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlerBareLifecycle(t *testing.T) {
	mux := newTestMux()

	rec := do(mux, http.MethodPost, "/authors/", `{"name":"Ted Chiang"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var a entity.Detail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "Ted Chiang", a.Name)
	assert.Zero(t, a.BooksCount)
	path := "/authors/" + strconv.FormatInt(a.ID, 10) + "/"

	rec = do(mux, http.MethodPut, path, `{"name":"Ted Chiang Jr."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "Ted Chiang Jr.", a.Name)

	rec = do(mux, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"name":["This field is required."]}`, rec.Body.String())

	rec = do(mux, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerSeparateEndpoints(t *testing.T) {
	mux := newTestMux()

	rec := do(mux, http.MethodPost, "/authors/create/", `{"name":"Martha Wells"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Message string        `json:"message"`
		Author  entity.Detail `json:"author"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Author created successfully.", created.Message)

	rec = do(mux, http.MethodDelete, "/authors/"+strconv.FormatInt(created.Author.ID, 10)+"/delete/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Author and related books deleted successfully."}`, rec.Body.String())
}

func TestHandlerListMeta(t *testing.T) {
	mux := newTestMux()
	for _, n := range []string{"Vernor Vinge", "Lois McMaster Bujold"} {
		require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/authors/", `{"name":"`+n+`"}`).Code)
	}

	rec := do(mux, http.MethodGet, "/authors/?ordering=-name&has_books=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []entity.Detail `json:"results"`
		Meta    struct {
			Count    int    `json:"count"`
			Filters  bool   `json:"filters_applied"`
			Ordering string `json:"ordering"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Meta.Count)
	assert.True(t, body.Meta.Filters)
	assert.Equal(t, "-name", body.Meta.Ordering)
	assert.Equal(t, "Vernor Vinge", body.Results[0].Name)
}
