package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// DocumentFile reads and writes the single document file. Contents are opaque
// bytes: plain JSON or ciphertext, the caller decides.
type DocumentFile struct {
	path string
}

// NewDocumentFile returns a DocumentFile over the given path.
func NewDocumentFile(path string) *DocumentFile { return &DocumentFile{path: path} }

// Path returns the document file location.
func (f *DocumentFile) Path() string { return f.path }

// Exists reports whether the document file is present.
func (f *DocumentFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Read returns the file contents. A missing file yields (nil, nil); the
// caller treats that as a first run.
func (f *DocumentFile) Read() ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: f.path, Err: err}
	}
	return b, nil
}

// Write replaces the file contents via a temp file and rename, so a crash
// mid-write cannot leave a half-written document behind.
func (f *DocumentFile) Write(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &IOError{Op: "write", Path: f.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	return nil
}
