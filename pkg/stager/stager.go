// pkg/stager/stager.go
package stager

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/archive"
	"github.com/arc-language/abistage/pkg/digest"
	"github.com/arc-language/abistage/pkg/emulation"
)

// DefaultBufferSize is the size of the reusable copy buffer
const DefaultBufferSize = 8192

// Source says which step of the search produced a candidate
type Source string

const (
	SourceHost     Source = "host"
	SourceNative   Source = "native"
	SourceEmulated Source = "emulated"
	SourceFallback Source = "fallback"
)

// Candidate is one ABI the stager will try
type Candidate struct {
	Tag    abi.Tag
	Source Source
}

// Result reports what a staging pass did. It is diagnostic: whether the
// package may run was decided by the resolver.
type Result struct {
	ABI           abi.Tag   // ABI that supplied the libraries, "" if none did
	Source        Source    // Search step ABI came from
	HasNativeCode bool      // Whether the archive has anything under lib/ at all
	Libraries     []string  // Base names of the staged libraries
	Copied        int       // Libraries written during this pass
	Skipped       int       // Libraries already present with the right size
	Attempted     []abi.Tag // Candidates tried, in order
	Fingerprint   string    // Fingerprint recorded in the marker
}

// Found reports whether some candidate supplied libraries
func (r *Result) Found() bool {
	return r.ABI != ""
}

// Translated reports whether the staged ABI needs the emulator
func (r *Result) Translated() bool {
	return r.Source == SourceEmulated
}

// Stager stages native libraries out of package archives
type Stager struct {
	host        abi.Host
	coordinator emulation.Coordinator
	opener      archive.Opener
	fs          FileSystem
	bufSize     int
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Stager
type Option func(*Stager)

// WithOpener replaces the zip opener
func WithOpener(o archive.Opener) Option {
	return func(s *Stager) { s.opener = o }
}

// WithFileSystem replaces the destination filesystem
func WithFileSystem(f FileSystem) Option {
	return func(s *Stager) { s.fs = f }
}

// WithBufferSize sets the copy buffer size; values below 512 are ignored
func WithBufferSize(n int) Option {
	return func(s *Stager) {
		if n >= 512 {
			s.bufSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Stager) { s.logger = l }
}

// WithClock sets the time source used for marker timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Stager) { s.now = now }
}

// New creates a Stager. A nil coordinator behaves as emulation.Disabled.
func New(host abi.Host, coordinator emulation.Coordinator, opts ...Option) *Stager {
	if coordinator == nil {
		coordinator = emulation.Disabled{}
	}
	s := &Stager{
		host:        host,
		coordinator: coordinator,
		opener:      archive.Zip,
		fs:          OSFileSystem{},
		bufSize:     DefaultBufferSize,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidates yields the ABIs to try, in order, without repeats. The
// emulator is consulted lazily: availability of an emulated ABI is only
// queried when the search reaches it.
func (s *Stager) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		seen := make(map[abi.Tag]bool)
		emit := func(tag abi.Tag, src Source) bool {
			if tag == "" || seen[tag] {
				return true
			}
			seen[tag] = true
			return yield(Candidate{Tag: tag, Source: src})
		}

		if !emit(s.host.Tag, SourceHost) {
			return
		}
		if s.coordinator.IsInitialized() {
			for _, tag := range s.coordinator.NativeSupportedAbis() {
				if !emit(tag, SourceNative) {
					return
				}
			}
			for _, tag := range s.coordinator.EmulatedAbis() {
				if seen[tag] || !s.coordinator.IsQemuAvailable(tag) {
					continue
				}
				if !emit(tag, SourceEmulated) {
					return
				}
			}
		}
		emit(abi.Armeabi, SourceFallback)
	}
}

// match is what one pass over the archive found for a candidate
type match struct {
	hasLib bool            // any entry under lib/
	libs   []archive.Entry // .so entries under the candidate's prefix
}

func (s *Stager) scan(r archive.Reader, tag abi.Tag) (match, error) {
	var m match
	prefix := tag.LibPrefix()
	err := r.Walk(func(e archive.Entry) error {
		if !strings.HasPrefix(e.Name, abi.LibRoot+"/") {
			return nil
		}
		m.hasLib = true
		if strings.HasPrefix(e.Name, prefix) && strings.HasSuffix(e.Name, ".so") {
			m.libs = append(m.libs, e)
		}
		return nil
	})
	return m, err
}

// Stage copies the libraries of the best candidate ABI from the archive at
// archivePath into dest, creating dest if needed.
//
// Only one Stage call may run against a given dest at a time; callers
// serialize staging per package.
func (s *Stager) Stage(archivePath, dest string) (*Result, error) {
	start := s.now()
	log := s.logger.With(zap.String("archive", archivePath), zap.String("dest", dest))
	defer func() {
		log.Debug("staging done", zap.Duration("elapsed", s.now().Sub(start)))
	}()

	res := &Result{}

	if err := s.fs.MkdirAll(dest, 0755); err != nil {
		return res, fmt.Errorf("%w: %w", ErrDestination, err)
	}

	r, err := s.opener.Open(archivePath)
	if err != nil {
		return res, unreadable(err)
	}
	defer r.Close()

	buf := make([]byte, s.bufSize)

	for c := range s.Candidates() {
		res.Attempted = append(res.Attempted, c.Tag)
		log.Debug("trying candidate abi", zap.Stringer("abi", c.Tag), zap.String("source", string(c.Source)))

		m, err := s.scan(r, c.Tag)
		if err != nil {
			return res, unreadable(err)
		}
		if !m.hasLib {
			log.Debug("no native libraries in archive, fast skip")
			return res, nil
		}
		res.HasNativeCode = true
		if len(m.libs) == 0 {
			continue
		}

		if err := s.install(log, archivePath, dest, c, m.libs, buf, res); err != nil {
			return res, err
		}
		if c.Source == SourceEmulated {
			log.Info("staged libraries will run under translation", zap.Stringer("abi", c.Tag))
		}
		return res, nil
	}

	log.Warn("no compatible native libraries found", zap.Any("attempted", res.Attempted))
	return res, nil
}

// install copies libs for candidate c and records the marker
func (s *Stager) install(log *zap.Logger, archivePath, dest string, c Candidate, libs []archive.Entry, buf []byte, res *Result) error {
	log.Debug("found candidate abi dir", zap.Stringer("abi", c.Tag), zap.Int("libraries", len(libs)))

	old, err := s.readMarker(dest)
	if err != nil && !errors.Is(err, ErrNoMarker) {
		log.Warn("ignoring unreadable marker", zap.Error(err))
		old = nil
	}
	if old != nil && old.ABI != c.Tag {
		if err := s.purge(log, dest, old); err != nil {
			return err
		}
		old = nil
	}

	res.ABI = c.Tag
	res.Source = c.Source

	seen := make(map[string]string, len(libs))
	for _, e := range libs {
		name := path.Base(e.Name)
		if first, ok := seen[name]; ok {
			log.Warn("duplicate library name, keeping first entry",
				zap.String("library", name), zap.String("kept", first), zap.String("ignored", e.Name))
			continue
		}
		seen[name] = e.Name

		skipped, err := s.copyLib(log, dest, name, e, buf)
		if err != nil {
			return err
		}
		if skipped {
			res.Skipped++
		} else {
			res.Copied++
		}
		res.Libraries = append(res.Libraries, name)
	}

	if res.Copied == 0 && old.matches(c.Tag, res.Libraries) {
		res.Fingerprint = old.Fingerprint
		return nil
	}

	fp, err := digest.Fingerprint(dest, res.Libraries)
	if err != nil {
		// the marker still records the ABI for later purges
		log.Warn("fingerprinting staged libraries failed, recording none", zap.Error(err))
		fp = ""
	}
	res.Fingerprint = fp

	return s.writeMarker(dest, &Marker{
		ABI:         c.Tag,
		Libraries:   res.Libraries,
		Fingerprint: fp,
		Archive:     archivePath,
		StagedAt:    s.now().UTC(),
	})
}

// purge removes the library set recorded by a marker for another ABI
func (s *Stager) purge(log *zap.Logger, dest string, old *Marker) error {
	log.Info("replacing staged abi", zap.Stringer("from", old.ABI))
	for _, name := range old.Libraries {
		target, err := securejoin.SecureJoin(dest, name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDestination, err)
		}
		if err := s.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: removing %s: %w", ErrDestination, name, err)
		}
	}
	return nil
}

// copyLib stages one entry as dest/name. It reports skipped when an
// existing file already has the entry's size.
func (s *Stager) copyLib(log *zap.Logger, dest, name string, e archive.Entry, buf []byte) (skipped bool, err error) {
	target, err := securejoin.SecureJoin(dest, name)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCopyFailed, name, err)
	}

	if info, err := s.fs.Stat(target); err == nil && info.Mode().IsRegular() && info.Size() == e.Size {
		log.Debug("skip copy", zap.String("library", name))
		return true, nil
	}

	log.Debug("copy library", zap.String("entry", e.Name), zap.String("library", name))

	src, err := e.Open()
	if err != nil {
		return false, fmt.Errorf("%w: opening %s: %w", ErrCopyFailed, e.Name, err)
	}
	out, err := s.fs.Create(target)
	if err != nil {
		src.Close()
		return false, fmt.Errorf("%w: creating %s: %w", ErrCopyFailed, name, err)
	}

	err = copyBuffer(out, src, buf)
	err = multierr.Combine(err, out.Close(), src.Close())
	if err != nil {
		if rmErr := s.fs.Remove(target); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
		return false, fmt.Errorf("%w: writing %s: %w", ErrCopyFailed, name, err)
	}
	return false, nil
}

// copyBuffer streams src into dst through buf
func copyBuffer(dst io.Writer, src io.Reader, buf []byte) error {
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// Verify checks that the libraries recorded in dest's marker still hash to
// the recorded fingerprint
func (s *Stager) Verify(dest string) (*Marker, error) {
	m, err := s.readMarker(dest)
	if err != nil {
		return nil, err
	}
	if m.Fingerprint == "" {
		return m, ErrNoFingerprint
	}
	if err := digest.Validate(m.Fingerprint); err != nil {
		return m, fmt.Errorf("%w: %w", ErrFingerprintMismatch, err)
	}

	fp, err := digest.Fingerprint(dest, m.Libraries)
	if err != nil {
		return m, fmt.Errorf("%w: %w", ErrFingerprintMismatch, err)
	}
	if fp != m.Fingerprint {
		return m, fmt.Errorf("%w: recorded %s, found %s", ErrFingerprintMismatch, m.Fingerprint, fp)
	}
	return m, nil
}

func unreadable(err error) error {
	if errors.Is(err, archive.ErrUnreadable) {
		return err
	}
	return fmt.Errorf("%w: %w", archive.ErrUnreadable, err)
}
