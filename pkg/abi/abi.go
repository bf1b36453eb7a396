// pkg/abi/abi.go
package abi

import "sort"

// LibRoot is the archive directory that holds one subdirectory per ABI.
const LibRoot = "lib"

// Tag identifies a native instruction-set variant a shared library targets
type Tag string

const (
	// ARM
	Arm64V8a   Tag = "arm64-v8a"   // ARM 64-bit
	ArmeabiV7a Tag = "armeabi-v7a" // ARMv7 32-bit
	Armeabi    Tag = "armeabi"     // generic ARM 32-bit

	// x86
	X86_64 Tag = "x86_64" // x86 64-bit (Intel/AMD)
	X86    Tag = "x86"    // x86 32-bit

	// RISC-V
	Riscv64 Tag = "riscv64"
)

// Family groups tags that share an instruction set
type Family string

const (
	FamilyARM   Family = "arm"
	FamilyX86   Family = "x86"
	FamilyRISCV Family = "riscv"
)

type tagInfo struct {
	family Family
	is64   bool
}

var known = map[Tag]tagInfo{
	Arm64V8a:   {FamilyARM, true},
	ArmeabiV7a: {FamilyARM, false},
	Armeabi:    {FamilyARM, false},
	X86_64:     {FamilyX86, true},
	X86:        {FamilyX86, false},
	Riscv64:    {FamilyRISCV, true},
}

// AllTags contains every recognized tag
var AllTags = []Tag{
	Arm64V8a,
	ArmeabiV7a,
	Armeabi,
	X86_64,
	X86,
	Riscv64,
}

// Parse returns the tag named by s, if it is recognized
func Parse(s string) (Tag, bool) {
	t := Tag(s)
	return t, t.IsValid()
}

// String returns the string representation of the tag
func (t Tag) String() string {
	return string(t)
}

// IsValid checks if the tag is one of the recognized architectures
func (t Tag) IsValid() bool {
	_, ok := known[t]
	return ok
}

// Is64Bit reports whether libraries for t use a 64-bit word
func (t Tag) Is64Bit() bool {
	return known[t].is64
}

// Family returns the instruction-set family of t, or "" if t is unknown
func (t Tag) Family() Family {
	return known[t].family
}

// LibPrefix returns the archive prefix holding t's libraries, e.g. "lib/arm64-v8a/"
func (t Tag) LibPrefix() string {
	return LibRoot + "/" + string(t) + "/"
}

// Sort orders tags by their position in AllTags; unknown tags sort last by name.
func Sort(tags []Tag) {
	rank := make(map[Tag]int, len(AllTags))
	for i, t := range AllTags {
		rank[t] = i
	}
	sort.SliceStable(tags, func(i, j int) bool {
		ri, iok := rank[tags[i]]
		rj, jok := rank[tags[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return tags[i] < tags[j]
		}
	})
}
