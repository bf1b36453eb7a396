// abistage.go
package abistage

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/cache"
	"github.com/arc-language/abistage/pkg/config"
	"github.com/arc-language/abistage/pkg/emulation"
	"github.com/arc-language/abistage/pkg/resolver"
	"github.com/arc-language/abistage/pkg/scanner"
	"github.com/arc-language/abistage/pkg/stager"
)

// Re-export types for convenience
type (
	Tag         = abi.Tag
	Host        = abi.Host
	Config      = config.Config
	Coordinator = emulation.Coordinator
	Profile     = scanner.Profile
	Verdict     = resolver.Verdict
	Result      = stager.Result
	Marker      = stager.Marker
)

// Re-export verdict statuses
const (
	Compatible   = resolver.Compatible
	Incompatible = resolver.Incompatible
	Unknown      = resolver.Unknown
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Manager answers whether packages can run on this host and stages their
// native libraries. It is safe for concurrent use.
type Manager struct {
	host     abi.Host
	profiles *cache.ProfileCache
	resolver *resolver.Resolver
	stager   *stager.Stager
	logger   *zap.Logger

	mu    sync.Mutex
	dests map[string]*destLock // only destinations with a holder or waiter
}

// destLock serializes staging into one directory
type destLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager
type Option func(*managerOptions)

type managerOptions struct {
	coordinator emulation.Coordinator
	logger      *zap.Logger
	fs          stager.FileSystem
}

// WithCoordinator uses c instead of the emulator profile named in the config
func WithCoordinator(c emulation.Coordinator) Option {
	return func(o *managerOptions) { o.coordinator = c }
}

// WithLogger sets the logger passed to every component
func WithLogger(l *zap.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// WithFileSystem replaces the filesystem staging writes through
func WithFileSystem(f stager.FileSystem) Option {
	return func(o *managerOptions) { o.fs = f }
}

// NewManager creates a Manager from cfg. A nil cfg uses DefaultConfig.
func NewManager(cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Op: "configure", Err: err}
	}

	o := managerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	host, err := cfg.Host()
	if err != nil {
		return nil, &Error{Op: "detect host", Err: fmt.Errorf("%w: %w", ErrPlatformNotSupported, err)}
	}

	if o.coordinator == nil {
		o.coordinator = emulation.Disabled{}
		if cfg.EmulatorProfile != "" {
			st, err := emulation.LoadProfile(cfg.EmulatorProfile)
			if err != nil {
				return nil, &Error{Op: "load emulator profile", Err: err}
			}
			o.coordinator = st
		}
	}

	log := o.logger.With(zap.Stringer("host", host))
	policy := cfg.Policy()

	profiles := cache.New(scanner.New(scanner.WithLogger(log.Named("scanner"))))

	stagerOpts := []stager.Option{
		stager.WithLogger(log.Named("stager")),
		stager.WithBufferSize(cfg.CopyBufferSize),
	}
	if o.fs != nil {
		stagerOpts = append(stagerOpts, stager.WithFileSystem(o.fs))
	}

	return &Manager{
		host:     host,
		profiles: profiles,
		resolver: resolver.New(profiles, host, o.coordinator,
			resolver.WithPolicy(policy),
			resolver.WithLogger(log.Named("resolver"))),
		stager: stager.New(host, o.coordinator, stagerOpts...),
		logger: log,
		dests:  make(map[string]*destLock),
	}, nil
}

// Host returns the host capability the manager decides for
func (m *Manager) Host() abi.Host {
	return m.host
}

// Profile returns the cached ABI profile of an archive, scanning it on first use
func (m *Manager) Profile(archivePath string) *Profile {
	return m.profiles.Get(archivePath)
}

// IsSupported reports whether the package at archivePath can run here.
// Unreadable archives follow the configured unknown-policy.
func (m *Manager) IsSupported(archivePath string) bool {
	return m.resolver.IsSupported(archivePath)
}

// Resolve returns the full verdict for the package at archivePath
func (m *Manager) Resolve(archivePath string) Verdict {
	return m.resolver.Resolve(archivePath)
}

// Stage copies the package's native libraries into dest. Calls for the
// same dest are serialized.
func (m *Manager) Stage(archivePath, dest string) (*Result, error) {
	unlock := m.lockDest(dest)
	defer unlock()

	res, err := m.stager.Stage(archivePath, dest)
	if err != nil {
		return res, &Error{Op: "stage", Archive: archivePath, Err: err}
	}
	return res, nil
}

// Verify checks the libraries staged in dest against their recorded fingerprint
func (m *Manager) Verify(dest string) (*Marker, error) {
	unlock := m.lockDest(dest)
	defer unlock()

	marker, err := m.stager.Verify(dest)
	if err != nil {
		return marker, &Error{Op: "verify", Err: err}
	}
	return marker, nil
}

// Forget drops the cached profile of an archive, e.g. after the package
// was reinstalled
func (m *Manager) Forget(archivePath string) {
	m.profiles.Forget(archivePath)
}

// Scans returns how many archive scans actually ran
func (m *Manager) Scans() int64 {
	return m.profiles.Scans()
}

func (m *Manager) lockDest(dest string) func() {
	key := cache.Key(dest)

	m.mu.Lock()
	l, ok := m.dests[key]
	if !ok {
		l = &destLock{}
		m.dests[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.dests, key)
		}
		m.mu.Unlock()
	}
}
