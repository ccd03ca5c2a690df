// Package storage persists the salt file and the document file on disk.
package storage

import "fmt"

// IOError wraps a filesystem failure with the operation and path that caused
// it. The store never retries; callers decide whether to abort.
type IOError struct {
	// Op names the failed operation ("read", "write", "delete").
	Op string
	// Path is the file involved.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *IOError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap supports errors.Is and errors.As on the underlying error.
func (e *IOError) Unwrap() error { return e.Err }
