// pkg/scanner/scanner.go
package scanner

import (
	"strings"

	"go.uber.org/zap"

	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/archive"
)

// Profile is the set of ABIs an archive ships under lib/.
// A profile with a nil Err is immutable once built.
type Profile struct {
	Archive string    // Archive path the profile was built from
	ABIs    []abi.Tag // Recognized ABI directories, sorted
	Err     error     // Set when the archive could not be read
}

// Readable reports whether the scan completed
func (p *Profile) Readable() bool {
	return p.Err == nil
}

// Empty reports whether no recognized ABI directory was found.
// An unreadable archive is also empty; check Readable to tell them apart.
func (p *Profile) Empty() bool {
	return len(p.ABIs) == 0
}

// Has reports whether tag is present
func (p *Profile) Has(tag abi.Tag) bool {
	for _, t := range p.ABIs {
		if t == tag {
			return true
		}
	}
	return false
}

// Has64 reports whether any recognized 64-bit ABI is present
func (p *Profile) Has64() bool {
	for _, t := range p.ABIs {
		if t.Is64Bit() {
			return true
		}
	}
	return false
}

// Has32 reports whether any recognized 32-bit ABI is present
func (p *Profile) Has32() bool {
	for _, t := range p.ABIs {
		if !t.Is64Bit() {
			return true
		}
	}
	return false
}

// Scanner derives ABI profiles from archives
type Scanner struct {
	opener archive.Opener
	logger *zap.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithOpener replaces the zip opener
func WithOpener(o archive.Opener) Option {
	return func(s *Scanner) { s.opener = o }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a Scanner reading zip archives from disk
func New(opts ...Option) *Scanner {
	s := &Scanner{
		opener: archive.Zip,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan enumerates the archive at path. It never returns nil; failures to
// open or iterate the archive are reported through Profile.Err with ABIs empty.
func (s *Scanner) Scan(path string) *Profile {
	p := &Profile{Archive: path}

	r, err := s.opener.Open(path)
	if err != nil {
		s.logger.Warn("archive unreadable", zap.String("archive", path), zap.Error(err))
		p.Err = err
		return p
	}
	defer r.Close()

	found := make(map[abi.Tag]bool)
	err = r.Walk(func(e archive.Entry) error {
		if tag, ok := TagOf(e.Name); ok {
			found[tag] = true
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("archive iteration failed", zap.String("archive", path), zap.Error(err))
		p.Err = err
		return p
	}

	for tag := range found {
		p.ABIs = append(p.ABIs, tag)
	}
	abi.Sort(p.ABIs)

	s.logger.Debug("scanned archive", zap.String("archive", path), zap.Any("abis", p.ABIs))
	return p
}

// TagOf extracts the ABI directory from an entry name of the form
// "lib/<abi>/...". Unrecognized directory names are ignored.
func TagOf(name string) (abi.Tag, bool) {
	rest, ok := strings.CutPrefix(name, abi.LibRoot+"/")
	if !ok {
		return "", false
	}
	dir, _, ok := strings.Cut(rest, "/")
	if !ok {
		// a file directly under lib/ names no directory
		return "", false
	}
	return abi.Parse(dir)
}
