package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
		ok   bool
	}{
		{"arm64-v8a", Arm64V8a, true},
		{"armeabi-v7a", ArmeabiV7a, true},
		{"armeabi", Armeabi, true},
		{"x86_64", X86_64, true},
		{"mips", Tag("mips"), false},
		{"", Tag(""), false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		require.Equal(t, tt.want, got, tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestWordWidthAndFamily(t *testing.T) {
	require.True(t, Arm64V8a.Is64Bit())
	require.False(t, ArmeabiV7a.Is64Bit())
	require.False(t, Armeabi.Is64Bit())
	require.Equal(t, FamilyARM, Armeabi.Family())
	require.Equal(t, FamilyX86, X86_64.Family())
	require.Equal(t, Family(""), Tag("mips").Family())
}

func TestLibPrefix(t *testing.T) {
	require.Equal(t, "lib/armeabi/", Armeabi.LibPrefix())
	require.Equal(t, "lib/armeabi-v7a/", ArmeabiV7a.LibPrefix())
}

func TestSort(t *testing.T) {
	tags := []Tag{"zzz", X86, Armeabi, Arm64V8a, "aaa"}
	Sort(tags)
	require.Equal(t, []Tag{Arm64V8a, Armeabi, X86, "aaa", "zzz"}, tags)
}

func TestNewHost(t *testing.T) {
	h, err := NewHost(Arm64V8a)
	require.NoError(t, err)
	require.True(t, h.Is64Bit)
	require.Equal(t, "arm64-v8a (64-bit)", h.String())

	h, err = NewHost(ArmeabiV7a)
	require.NoError(t, err)
	require.False(t, h.Is64Bit)

	_, err = NewHost("mips")
	require.Error(t, err)
}

func TestDetectHost(t *testing.T) {
	// Result depends on the build machine
	h, err := DetectHost()
	if err != nil {
		t.Logf("host not recognized: %v", err)
		return
	}
	require.True(t, h.Tag.IsValid())
}
