// pkg/abi/host.go
package abi

import (
	"fmt"
	"runtime"
)

// Host describes what the running device executes natively.
// It is a process-wide fact, determined once at startup.
type Host struct {
	Tag     Tag  // Native architecture reported by the device
	Is64Bit bool // Native word width
}

// DetectHost maps the Go runtime architecture to a Tag
func DetectHost() (Host, error) {
	switch runtime.GOARCH {
	case "arm64":
		return NewHost(Arm64V8a)
	case "arm":
		// Default to armv7 for ARM 32-bit
		return NewHost(ArmeabiV7a)
	case "amd64":
		return NewHost(X86_64)
	case "386":
		return NewHost(X86)
	case "riscv64":
		return NewHost(Riscv64)
	default:
		return Host{}, fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}
}

// NewHost builds a Host for an explicit tag, e.g. from configuration
func NewHost(tag Tag) (Host, error) {
	if !tag.IsValid() {
		return Host{}, fmt.Errorf("unrecognized host abi %q", tag)
	}
	return Host{Tag: tag, Is64Bit: tag.Is64Bit()}, nil
}

// Family returns the host's instruction-set family
func (h Host) Family() Family {
	return h.Tag.Family()
}

// String returns a string representation of the host
func (h Host) String() string {
	bits := 32
	if h.Is64Bit {
		bits = 64
	}
	return fmt.Sprintf("%s (%d-bit)", h.Tag, bits)
}
