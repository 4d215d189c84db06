// Package upload stores user submitted files and hands back the public
// URL they are served under.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves an uploaded file and returns its serving URL. Remove
// takes that URL back when the request the file belonged to failed.
type Store interface {
	Save(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// DiskStore writes files under a local directory, served at
// baseURL/uploads/{name}.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL}, nil
}

// storedName keeps the original extension but replaces the rest with a
// random id so uploads never collide or traverse paths.
func storedName(originalName string) string {
	ext := filepath.Ext(originalName)
	return uuid.NewString() + ext
}

func (s *DiskStore) Save(_ context.Context, originalName, _ string, r io.Reader, _ int64) (string, error) {
	name := storedName(originalName)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return s.baseURL + "/uploads/" + name, nil
}

// Remove deletes the file behind a URL previously returned by Save.
// A file that is already gone is not an error.
func (s *DiskStore) Remove(_ context.Context, publicURL string) error {
	name := path.Base(publicURL)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "..") {
		return fmt.Errorf("bad upload name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

// Dir returns the directory files are written to, for static serving.
func (s *DiskStore) Dir() string {
	return s.dir
}
