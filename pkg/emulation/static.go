package emulation

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/abistage/pkg/abi"
)

// Profile is the on-disk description of a translation subsystem
type Profile struct {
	Initialized bool              `toml:"initialized"`
	Native      []string          `toml:"native"`
	Emulated    []string          `toml:"emulated"`
	Modules     map[string]string `toml:"modules"`
}

// Static is a Coordinator built from a Profile
type Static struct {
	mu          sync.RWMutex
	initialized bool
	native      []abi.Tag
	emulated    []abi.Tag
	modules     map[abi.Tag]string

	// stat checks a module path; replaced in tests
	stat func(path string) error
}

// LoadProfile reads and parses a TOML profile
func LoadProfile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("emulation: reading profile: %w", err)
	}

	var p Profile
	if _, err := toml.Decode(string(data), &p); err != nil {
		return nil, fmt.Errorf("emulation: failed to parse '%s': %w", path, err)
	}

	return NewStatic(p)
}

// NewStatic validates p and builds a coordinator from it
func NewStatic(p Profile) (*Static, error) {
	native, err := parseTags("native", p.Native)
	if err != nil {
		return nil, err
	}
	emulated, err := parseTags("emulated", p.Emulated)
	if err != nil {
		return nil, err
	}

	modules := make(map[abi.Tag]string, len(p.Modules))
	for name, path := range p.Modules {
		tag, ok := abi.Parse(name)
		if !ok {
			return nil, fmt.Errorf("emulation: module for unknown abi %q", name)
		}
		modules[tag] = path
	}

	return &Static{
		initialized: p.Initialized,
		native:      native,
		emulated:    emulated,
		modules:     modules,
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
	}, nil
}

func parseTags(field string, names []string) ([]abi.Tag, error) {
	tags := make([]abi.Tag, 0, len(names))
	seen := make(map[abi.Tag]bool, len(names))
	for _, name := range names {
		tag, ok := abi.Parse(name)
		if !ok {
			return nil, fmt.Errorf("emulation: unknown abi %q in %s", name, field)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

// SetInitialized flips the readiness flag, e.g. once the subsystem starts
func (s *Static) SetInitialized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = v
}

func (s *Static) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Static) NativeSupportedAbis() []abi.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]abi.Tag(nil), s.native...)
}

func (s *Static) EmulatedAbis() []abi.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]abi.Tag(nil), s.emulated...)
}

func (s *Static) IsQemuAvailable(tag abi.Tag) bool {
	s.mu.RLock()
	emulated := false
	for _, t := range s.emulated {
		if t == tag {
			emulated = true
			break
		}
	}
	module, hasModule := s.modules[tag]
	s.mu.RUnlock()

	if !emulated {
		return false
	}
	if !hasModule {
		return true
	}
	return s.stat(module) == nil
}
