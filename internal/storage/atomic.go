package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicWriter provides atomic file write operations using temp file + rename.
// The target file is never left in a partially-written state.
type AtomicWriter struct {
	path    string
	tmpPath string
	perm    os.FileMode
	file    *os.File
}

// NewAtomicWriter creates a writer for atomic file updates.
// The temporary file lives in the same directory as the target so the final
// rename stays on one filesystem. perm is applied on Commit.
func NewAtomicWriter(path string, perm os.FileMode) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "write", Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}

	tmpFile, err := os.CreateTemp(dir, ".ytauto-*.tmp")
	if err != nil {
		return nil, &StorageError{Op: "write", Path: path, Err: fmt.Errorf("create temp file: %w", err)}
	}

	return &AtomicWriter{
		path:    path,
		tmpPath: tmpFile.Name(),
		perm:    perm,
		file:    tmpFile,
	}, nil
}

// Write writes data to the temporary file.
func (w *AtomicWriter) Write(p []byte) (n int, err error) {
	if w.file == nil {
		return 0, ErrCommitted
	}
	return w.file.Write(p)
}

// Commit atomically replaces the target file with the temporary file.
// The data is synced to disk before the rename.
func (w *AtomicWriter) Commit() error {
	if w.file == nil {
		return ErrCommitted
	}
	f := w.file
	w.file = nil

	if err := f.Chmod(w.perm); err != nil {
		f.Close()
		os.Remove(w.tmpPath)
		return &StorageError{Op: "commit", Path: w.path, Err: fmt.Errorf("chmod: %w", err)}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(w.tmpPath)
		return &StorageError{Op: "commit", Path: w.path, Err: fmt.Errorf("sync: %w", err)}
	}
	if err := f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return &StorageError{Op: "commit", Path: w.path, Err: fmt.Errorf("close: %w", err)}
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath) // Best effort cleanup
		return &StorageError{Op: "commit", Path: w.path, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}

// Abort discards the temporary file without committing.
func (w *AtomicWriter) Abort() error {
	if w.file == nil {
		return nil
	}
	w.file.Close()
	w.file = nil
	return os.Remove(w.tmpPath)
}

// WriteFile atomically replaces path with whatever fn writes.
func WriteFile(path string, perm os.FileMode, fn func(io.Writer) error) error {
	w, err := NewAtomicWriter(path, perm)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		w.Abort()
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return w.Commit()
}
