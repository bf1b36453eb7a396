package stager

import (
	"io"
	"io/fs"
	"os"
)

// FileSystem is the subset of file operations the stager performs on the
// destination directory
type FileSystem interface {
	// Stat returns file info for the named file
	Stat(path string) (fs.FileInfo, error)

	// MkdirAll creates a directory named path, along with any necessary parents
	MkdirAll(path string, perm fs.FileMode) error

	// Create opens path for writing, truncating any existing file
	Create(path string) (io.WriteCloser, error)

	// Remove removes the named file
	Remove(path string) error

	// ReadFile reads the named file and returns the contents
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// OSFileSystem implements FileSystem using real OS operations
type OSFileSystem struct{}

func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
}

func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}
