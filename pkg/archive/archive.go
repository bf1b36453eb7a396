// pkg/archive/archive.go
package archive

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// MethodXZ is the zip compression method number assigned to XZ (APPNOTE 4.4.5)
const MethodXZ uint16 = 95

// ErrUnreadable indicates the archive could not be opened or iterated
var ErrUnreadable = errors.New("archive unreadable")

// Entry is a single archive member as seen by the scanner and stager
type Entry struct {
	Name string // Slash-separated path inside the archive
	Size int64  // Recorded uncompressed size

	open func() (io.ReadCloser, error)
}

// NewEntry builds an Entry backed by an arbitrary content source
func NewEntry(name string, size int64, open func() (io.ReadCloser, error)) Entry {
	return Entry{Name: name, Size: size, open: open}
}

// Open returns a reader for the entry's decompressed content
func (e Entry) Open() (io.ReadCloser, error) {
	if e.open == nil {
		return nil, fmt.Errorf("entry %s has no content", e.Name)
	}
	return e.open()
}

// Reader enumerates the entries of an opened archive
type Reader interface {
	// Walk calls fn for each entry in archive order. Returning a non-nil
	// error from fn stops the walk and is returned unchanged.
	Walk(fn func(Entry) error) error

	// Close releases the archive
	Close() error
}

// Opener opens an archive by filesystem path
type Opener interface {
	Open(path string) (Reader, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(path string) (Reader, error)

// Open calls f(path)
func (f OpenerFunc) Open(path string) (Reader, error) {
	return f(path)
}

// Zip opens zip-format archives from disk
var Zip Opener = OpenerFunc(OpenZip)

// zipReader implements Reader over a zip central directory
type zipReader struct {
	path string
	rc   *zip.ReadCloser
}

// OpenZip opens the zip file at path with XZ and Zstandard entries supported
func OpenZip(path string) (Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	rc.RegisterDecompressor(MethodXZ, newXZReader)
	rc.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	return &zipReader{path: path, rc: rc}, nil
}

func (z *zipReader) Walk(fn func(Entry) error) error {
	for _, f := range z.rc.File {
		f := f
		entry := Entry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
			open: f.Open,
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

func (z *zipReader) Close() error {
	return z.rc.Close()
}

// newXZReader adapts xz.NewReader to the zip Decompressor signature
func newXZReader(r io.Reader) io.ReadCloser {
	xr, err := xz.NewReader(r)
	if err != nil {
		return errReadCloser{fmt.Errorf("creating xz reader: %w", err)}
	}
	return io.NopCloser(xr)
}

type errReadCloser struct {
	err error
}

func (e errReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e errReadCloser) Close() error             { return nil }
