// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
package filesystem

import (
	"io"
	"os"
)

// CacheFs adapts the afero filesystem to the gache.FileSystem interface,
// so the persistent caches (history, lyrics) go through the swappable backend.
type CacheFs struct{}

// OpenFile opens a file using the current filesystem backend.
func (CacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

// MkdirAll creates a directory using the current filesystem backend.
func (CacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
