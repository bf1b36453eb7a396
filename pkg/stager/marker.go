package stager

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arc-language/abistage/pkg/abi"
)

// MarkerName is the file recording which ABI a destination holds
const MarkerName = ".abistage.yaml"

// Marker describes the library set currently staged in a directory
type Marker struct {
	ABI         abi.Tag   `yaml:"abi"`
	Libraries   []string  `yaml:"libraries"`
	Fingerprint string    `yaml:"fingerprint,omitempty"`
	Archive     string    `yaml:"archive"`
	StagedAt    time.Time `yaml:"staged_at"`
}

// matches reports whether m already describes tag with exactly libs
func (m *Marker) matches(tag abi.Tag, libs []string) bool {
	if m == nil || m.ABI != tag {
		return false
	}
	a := slices.Clone(m.Libraries)
	b := slices.Clone(libs)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// readMarker returns the destination's marker, or ErrNoMarker if there is none
func (s *Stager) readMarker(dest string) (*Marker, error) {
	data, err := s.fs.ReadFile(filepath.Join(dest, MarkerName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoMarker
		}
		return nil, fmt.Errorf("reading marker: %w", err)
	}

	var m Marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing marker: %w", err)
	}
	return &m, nil
}

func (s *Stager) writeMarker(dest string, m *Marker) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling marker: %w", err)
	}
	if err := s.fs.WriteFile(filepath.Join(dest, MarkerName), data, 0644); err != nil {
		return fmt.Errorf("%w: writing marker: %w", ErrDestination, err)
	}
	return nil
}
