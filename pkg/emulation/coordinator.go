package emulation

import "github.com/arc-language/abistage/pkg/abi"

// Coordinator reports the readiness and reach of the translation subsystem
type Coordinator interface {
	// IsInitialized reports whether the subsystem finished starting up
	IsInitialized() bool

	// NativeSupportedAbis lists ABIs run without translation, highest priority first
	NativeSupportedAbis() []abi.Tag

	// EmulatedAbis lists ABIs the subsystem can translate, highest priority first
	EmulatedAbis() []abi.Tag

	// IsQemuAvailable reports whether translation for tag is usable right now
	IsQemuAvailable(tag abi.Tag) bool
}

// Disabled is a Coordinator for hosts without a translation subsystem
type Disabled struct{}

func (Disabled) IsInitialized() bool            { return false }
func (Disabled) NativeSupportedAbis() []abi.Tag { return nil }
func (Disabled) EmulatedAbis() []abi.Tag        { return nil }
func (Disabled) IsQemuAvailable(abi.Tag) bool   { return false }
