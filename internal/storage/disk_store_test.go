package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/media")
	require.NoError(t, err)
	ctx := context.Background()

	var store ObjectStore = s
	require.NoError(t, store.Put(ctx, "profile_photos/1/a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	data, err := os.ReadFile(filepath.Join(dir, "profile_photos", "1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url, err := store.PresignGet(ctx, "profile_photos/1/a.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "/media/profile_photos/1/a.png", url)

	require.NoError(t, store.Delete(ctx, "profile_photos/1/a.png"))
	_, err = os.Stat(filepath.Join(dir, "profile_photos", "1", "a.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, "profile_photos/1/a.png"))
}

func TestDiskStoreKeepsKeysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "media"), "/media/")
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "media", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreRejectsEmptyKey(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/media")
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "", strings.NewReader(""), 0, "text/plain"))
}

var (
	_ ObjectStore = (*MinioStore)(nil)
	_ ObjectStore = (*DiskStore)(nil)
)

func TestDiskStoreHandlerHidesDirectories(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/media")
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "profile_photos/1/a.png", strings.NewReader("png-bytes"), 9, "image/png"))
	h := s.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/profile_photos/1/a.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	for _, dir := range []string{"/", "/profile_photos/", "/profile_photos/1/", "/profile_photos"} {
		rec = get(dir)
		assert.Equal(t, http.StatusNotFound, rec.Code, dir)
		assert.NotContains(t, rec.Body.String(), "a.png", dir)
	}
}
