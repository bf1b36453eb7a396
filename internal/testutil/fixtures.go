package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression methods understood by WriteZip
const (
	Store   uint16 = zip.Store
	Deflate uint16 = zip.Deflate
	XZ      uint16 = 95
	Zstd    uint16 = zstd.ZipMethodWinZip
)

// ZipEntry describes one member of a fixture archive
type ZipEntry struct {
	Name   string
	Data   []byte
	Method uint16
}

// File returns a deflated entry with the given content
func File(name, data string) ZipEntry {
	return ZipEntry{Name: name, Data: []byte(data), Method: Deflate}
}

// Dir returns a directory entry; name should end in "/"
func Dir(name string) ZipEntry {
	return ZipEntry{Name: name, Method: Store}
}

// WriteZip writes a zip archive named name into dir and returns its path
func WriteZip(t testing.TB, dir, name string, entries ...ZipEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	w.RegisterCompressor(XZ, func(out io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(out)
	})
	w.RegisterCompressor(Zstd, zstd.ZipCompressor())

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: e.Method}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("creating entry %s: %v", e.Name, err)
		}
		if len(e.Data) > 0 {
			if _, err := fw.Write(e.Data); err != nil {
				t.Fatalf("writing entry %s: %v", e.Name, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}
	return path
}

// WriteCorrupt writes a file that is not a valid zip archive
func WriteCorrupt(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("definitely not a zip archive"), 0644); err != nil {
		t.Fatalf("writing corrupt fixture: %v", err)
	}
	return path
}
