package emulation

import (
	"sync"

	"github.com/arc-language/abistage/pkg/abi"
)

// Mock is a Coordinator whose answers are set directly. It records how
// often availability was queried per tag.
type Mock struct {
	mu          sync.Mutex
	Initialized bool
	Native      []abi.Tag
	Emulated    []abi.Tag
	Available   map[abi.Tag]bool

	queries map[abi.Tag]int
}

// NewMock returns an uninitialized mock
func NewMock() *Mock {
	return &Mock{
		Available: make(map[abi.Tag]bool),
		queries:   make(map[abi.Tag]int),
	}
}

func (m *Mock) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Initialized
}

func (m *Mock) NativeSupportedAbis() []abi.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]abi.Tag(nil), m.Native...)
}

func (m *Mock) EmulatedAbis() []abi.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]abi.Tag(nil), m.Emulated...)
}

func (m *Mock) IsQemuAvailable(tag abi.Tag) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queries == nil {
		m.queries = make(map[abi.Tag]int)
	}
	m.queries[tag]++
	return m.Available[tag]
}

// Queries returns how many times IsQemuAvailable was asked about tag
func (m *Mock) Queries(tag abi.Tag) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[tag]
}
