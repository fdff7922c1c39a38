package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore keeps objects under a local directory and serves them from URLPrefix.
type DiskStore struct {
	Dir       string
	URLPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/") + "/"}, nil
}

func (d *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", errors.New("empty object key")
	}
	return filepath.Join(d.Dir, clean), nil
}

// Put writes the object through a temp file so readers never see a partial file.
func (d *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	defer os.Remove(tmp.Name())
	if size >= 0 {
		r = io.LimitReader(r, size)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("put object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PresignGet returns the public media URL; disk objects need no signature.
func (d *DiskStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := d.path(key); err != nil {
		return "", err
	}
	u := url.URL{Path: d.URLPrefix + strings.TrimPrefix(key, "/")}
	return u.String(), nil
}

// Delete removes the object; a missing object is not an error.
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Handler serves stored objects by key. Directories answer 404 so the
// media tree cannot be listed.
func (d *DiskStore) Handler() http.Handler {
	return http.FileServer(filesOnly{http.Dir(d.Dir)})
}

type filesOnly struct{ http.FileSystem }

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
