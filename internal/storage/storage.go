// Package storage writes project and credential files without leaving them
// half-written, and serializes processes that edit the same file.
package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for file storage conditions.
var (
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
	// ErrCommitted indicates a write was attempted after Commit or Abort.
	ErrCommitted = errors.New("storage: writer already finished")
)

// StorageError wraps storage errors with the operation and file involved.
// Use errors.As() to extract this error type:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.Path, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("lock", "unlock", "write", "commit").
	Op string
	// Path is the file the operation was acting on.
	Path string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }
