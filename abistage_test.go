package abistage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arc-language/abistage/internal/testutil"
	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/emulation"
	"github.com/arc-language/abistage/pkg/resolver"
)

func newManager(t *testing.T, host string, opts ...Option) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HostABI = host
	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	return m
}

func TestNewManager_Defaults(t *testing.T) {
	t.Setenv("ABISTAGE_HOST_ABI", "")
	m, err := NewManager(nil)
	if _, detectErr := abi.DetectHost(); detectErr != nil {
		require.ErrorIs(t, err, ErrPlatformNotSupported)
		return
	}
	require.NoError(t, err)
	require.True(t, m.Host().Tag.IsValid())
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnknownPolicy = "sometimes"

	_, err := NewManager(cfg)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "configure", e.Op)
}

func TestNewManager_EmulatorProfile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "emulator.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`
initialized = true
native = ["arm64-v8a"]
emulated = ["armeabi-v7a"]
`), 0644))

	cfg := DefaultConfig()
	cfg.HostABI = "arm64-v8a"
	cfg.EmulatorProfile = profile
	m, err := NewManager(cfg)
	require.NoError(t, err)

	apk := testutil.WriteZip(t, dir, "arm32.apk", testutil.File("lib/armeabi-v7a/libfoo.so", "foo"))
	v := m.Resolve(apk)
	require.Equal(t, Compatible, v.Status)
	require.Equal(t, resolver.ReasonTranslated, v.Reason)

	cfg.EmulatorProfile = filepath.Join(dir, "missing.toml")
	_, err = NewManager(cfg)
	require.Error(t, err)
}

func TestManager_ResolveAndStage(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk",
		testutil.File("lib/arm64-v8a/libfoo.so", "foo64"),
		testutil.File("lib/armeabi-v7a/libfoo.so", "foo32"),
	)
	m := newManager(t, "arm64-v8a")

	require.True(t, m.IsSupported(apk))
	require.True(t, m.IsSupported(apk))
	require.EqualValues(t, 1, m.Scans())
	require.Equal(t, []abi.Tag{abi.Arm64V8a, abi.ArmeabiV7a}, m.Profile(apk).ABIs)

	dest := filepath.Join(dir, "lib")
	res, err := m.Stage(apk, dest)
	require.NoError(t, err)
	require.Equal(t, abi.Arm64V8a, res.ABI)

	marker, err := m.Verify(dest)
	require.NoError(t, err)
	require.Equal(t, res.Fingerprint, marker.Fingerprint)
}

func TestManager_Forget(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk", testutil.File("lib/arm64-v8a/libfoo.so", "foo"))
	m := newManager(t, "armeabi-v7a")

	require.False(t, m.IsSupported(apk))

	// reinstall with 32-bit code
	testutil.WriteZip(t, dir, "app.apk", testutil.File("lib/armeabi-v7a/libfoo.so", "foo"))
	require.False(t, m.IsSupported(apk), "profile is cached")

	m.Forget(apk)
	require.True(t, m.IsSupported(apk))
	require.EqualValues(t, 2, m.Scans())
}

func TestManager_ArmPackagesOnX86Host(t *testing.T) {
	dir := t.TempDir()
	arm64 := testutil.WriteZip(t, dir, "arm64.apk", testutil.File("lib/arm64-v8a/libfoo.so", "a"))
	arm32 := testutil.WriteZip(t, dir, "arm32.apk", testutil.File("lib/armeabi-v7a/libfoo.so", "b"))

	m := newManager(t, "x86_64")
	require.True(t, m.IsSupported(arm64))
	require.True(t, m.IsSupported(arm32))
	require.Equal(t, resolver.ReasonNative, m.Resolve(arm64).Reason)
}

func TestManager_UnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	broken := testutil.WriteCorrupt(t, dir, "broken.apk")

	allow := newManager(t, "arm64-v8a")
	require.True(t, allow.IsSupported(broken))
	require.Equal(t, Unknown, allow.Resolve(broken).Status)

	cfg := DefaultConfig()
	cfg.HostABI = "arm64-v8a"
	cfg.UnknownPolicy = "deny"
	deny, err := NewManager(cfg)
	require.NoError(t, err)
	require.False(t, deny.IsSupported(broken))
}

func TestManager_ErrorsCarryContext(t *testing.T) {
	dir := t.TempDir()
	broken := testutil.WriteCorrupt(t, dir, "broken.apk")
	m := newManager(t, "arm64-v8a")

	_, err := m.Stage(broken, filepath.Join(dir, "lib"))
	require.ErrorIs(t, err, ErrArchiveUnreadable)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, "stage", e.Op)
	require.Equal(t, broken, e.Archive)
	require.Contains(t, err.Error(), "stage "+broken+":")

	_, err = m.Verify(filepath.Join(dir, "never-staged"))
	require.ErrorIs(t, err, ErrNoMarker)
	require.True(t, errors.As(err, &e))
	require.Equal(t, "verify", e.Op)
}

func TestManager_ConcurrentStageSameDest(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk",
		testutil.File("lib/armeabi-v7a/liba.so", "a"),
		testutil.File("lib/armeabi-v7a/libb.so", "bb"),
	)
	mock := emulation.NewMock()
	mock.Initialized = true
	mock.Emulated = []abi.Tag{abi.ArmeabiV7a}
	mock.Available[abi.ArmeabiV7a] = true

	m := newManager(t, "x86_64", WithCoordinator(mock))
	dest := filepath.Join(dir, "lib")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Stage(apk, dest)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, err := m.Verify(dest)
	require.NoError(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Empty(t, m.dests, "idle destinations hold no lock entry")
}

func TestManager_DestLocksReleased(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk", testutil.File("lib/arm64-v8a/libfoo.so", "foo"))
	m := newManager(t, "arm64-v8a")

	for i := range 5 {
		_, err := m.Stage(apk, filepath.Join(dir, "dest", string(rune('a'+i))))
		require.NoError(t, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Empty(t, m.dests)
}

func TestError(t *testing.T) {
	inner := errors.New("boom")

	e := &Error{Op: "stage", Archive: "app.apk", Err: inner}
	require.Equal(t, "stage app.apk: boom", e.Error())
	require.ErrorIs(t, e, inner)

	e = &Error{Op: "verify", Err: inner}
	require.Equal(t, "verify: boom", e.Error())
}
