package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaltSize is the salt file length in bytes.
const SaltSize = 16

// SaltStore persists the per-installation key-derivation salt. The file is
// created once when password mode is first enabled and deleted only when the
// user disables password protection.
type SaltStore struct {
	path string
}

// NewSaltStore returns a SaltStore over the given file path.
func NewSaltStore(path string) *SaltStore { return &SaltStore{path: path} }

// Path returns the salt file location.
func (s *SaltStore) Path() string { return s.path }

// Exists reports whether the salt file is present.
func (s *SaltStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// GetOrCreate returns the persisted salt, generating and writing a fresh
// random one if the file does not exist yet. Idempotent after first call.
func (s *SaltStore) GetOrCreate() ([]byte, error) {
	salt, err := os.ReadFile(s.path)
	if err == nil {
		if len(salt) != SaltSize {
			return nil, &IOError{Op: "read", Path: s.path,
				Err: fmt.Errorf("salt file holds %d bytes, want %d", len(salt), SaltSize)}
		}
		return salt, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	salt = make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, &IOError{Op: "generate", Path: s.path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, salt, 0o600); err != nil {
		return nil, &IOError{Op: "write", Path: s.path, Err: err}
	}
	return salt, nil
}

// Delete removes the salt file. Deleting an absent file is not an error.
func (s *SaltStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "delete", Path: s.path, Err: err}
	}
	return nil
}
