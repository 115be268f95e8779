package kamusi

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage opens the contents behind a stored file path. The translation
// layer itself only stores and compares path strings; Storage is consulted
// lazily, when a caller asks a File handle for its contents.
type Storage interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirStorage serves files from a directory on the local filesystem.
type DirStorage struct {
	Root string
}

func (s DirStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Root, filepath.FromSlash(name)))
}

// File is the handle returned when reading a translated file or image
// attribute. The attribute's stored value is a bare path string; the handle
// wraps it with name, URL and content access. Handles are created lazily on
// first read and cached per instance and language, so repeated reads of the
// same attribute under the same language return the same handle.
type File struct {
	name    string
	storage Storage
}

// NewFile wraps a stored path string into a handle backed by the supplied
// storage.
func NewFile(name string, storage Storage) *File {
	return &File{name: name, storage: storage}
}

// Name returns the stored path string, "" for an unset attribute.
func (f *File) Name() string {
	return f.name
}

// IsZero reports whether the attribute held no value.
func (f *File) IsZero() bool {
	return f.name == ""
}

// URL joins the stored path onto a public base URL.
func (f *File) URL(base string) string {
	if f.name == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + path.Clean(strings.TrimPrefix(f.name, "/"))
}

// Open returns the file contents from storage. The caller closes the reader.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.name == "" {
		return nil, os.ErrNotExist
	}
	return f.storage.Open(ctx, f.name)
}
