// pkg/resolver/resolver.go
package resolver

import (
	"go.uber.org/zap"

	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/emulation"
	"github.com/arc-language/abistage/pkg/scanner"
)

// Profiles hands out memoized archive profiles
type Profiles interface {
	Get(path string) *scanner.Profile
}

// Resolver decides whether a package can execute on the host
type Resolver struct {
	profiles    Profiles
	host        abi.Host
	coordinator emulation.Coordinator
	policy      UnknownPolicy
	logger      *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithPolicy sets how unreadable archives are answered by IsSupported
func WithPolicy(p UnknownPolicy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver. A nil coordinator behaves as emulation.Disabled.
func New(profiles Profiles, host abi.Host, coordinator emulation.Coordinator, opts ...Option) *Resolver {
	if coordinator == nil {
		coordinator = emulation.Disabled{}
	}
	r := &Resolver{
		profiles:    profiles,
		host:        host,
		coordinator: coordinator,
		policy:      AllowUnknown,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsSupported reports whether the archive at path can run on the host
func (r *Resolver) IsSupported(path string) bool {
	return r.Resolve(path).Supported(r.policy)
}

// Resolve returns the full verdict for the archive at path
func (r *Resolver) Resolve(path string) Verdict {
	v := r.Decide(r.profiles.Get(path))
	r.logger.Debug("resolved archive",
		zap.String("archive", path),
		zap.Stringer("status", v.Status),
		zap.String("reason", string(v.Reason)),
	)
	return v
}

// Decide applies the compatibility rules to an already built profile.
// Native execution is preferred over translation; a 32-bit package on a
// 64-bit host is accepted even without confirmed translation because the
// stager may still find a runnable library set.
func (r *Resolver) Decide(p *scanner.Profile) Verdict {
	v := Verdict{Profile: p}

	if !p.Readable() {
		v.Status, v.Reason = Unknown, ReasonUnreadable
		return v
	}
	if p.Empty() {
		v.Status, v.Reason = Compatible, ReasonNoNativeCode
		return v
	}

	has64 := p.Has64()
	has32 := p.Has32()

	if !r.host.Is64Bit {
		// no downgrade path from 64-bit libraries
		if has32 {
			v.Status, v.Reason = Compatible, ReasonNative
		} else {
			v.Status, v.Reason = Incompatible, ReasonNoCompatibleABI
		}
		return v
	}

	switch {
	case has64:
		v.Status, v.Reason = Compatible, ReasonNative
	case has32 && r.translationReady():
		v.Status, v.Reason = Compatible, ReasonTranslated
	case has32:
		// TODO: confirm with product whether unconfirmed translation should still admit installs
		v.Status, v.Reason = Compatible, ReasonPermissive32
	default:
		v.Status, v.Reason = Incompatible, ReasonNoCompatibleABI
	}
	return v
}

// translationReady reports whether the emulator can run 32-bit ARM code now
func (r *Resolver) translationReady() bool {
	return r.coordinator.IsInitialized() && r.coordinator.IsQemuAvailable(abi.ArmeabiV7a)
}
