package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arc-language/abistage/internal/testutil"
	"github.com/arc-language/abistage/pkg/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvHostABI, "")

	cfgFile, debug, jsonLogs = "", false, false
	hostABI, emulatorProfile, unknownPolicy = "", "", ""
	cfg = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk",
		testutil.File("lib/x86/libfoo.so", "x"),
		testutil.File("lib/arm64-v8a/libfoo.so", "a"),
	)
	plain := testutil.WriteZip(t, dir, "plain.apk", testutil.File("classes.dex", "dex"))

	out, err := run(t, "--host-abi", "x86_64", "scan", apk)
	require.NoError(t, err)
	require.Equal(t, apk+": arm64-v8a x86\n", out)

	out, err = run(t, "--host-abi", "x86_64", "scan", plain)
	require.NoError(t, err)
	require.Contains(t, out, "no native code")

	_, err = run(t, "--host-abi", "x86_64", "scan", testutil.WriteCorrupt(t, dir, "bad.apk"))
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	arm32 := testutil.WriteZip(t, dir, "arm32.apk", testutil.File("lib/armeabi-v7a/libfoo.so", "a"))
	x86 := testutil.WriteZip(t, dir, "x86_64.apk", testutil.File("lib/x86_64/libfoo.so", "x"))

	out, err := run(t, "--host-abi", "x86_64", "check", arm32, x86)
	require.NoError(t, err)
	require.Contains(t, out, "Host: x86_64 (64-bit)")
	require.Contains(t, out, "compatible (native)")
	require.Contains(t, out, "compatible (permissive-32bit)")

	out, err = run(t, "--host-abi", "armeabi-v7a", "check", arm32, x86)
	require.ErrorContains(t, err, "1 of 2 packages not supported")
	require.Contains(t, out, "incompatible (no-compatible-abi)")
}

func TestCheck_UnknownPolicy(t *testing.T) {
	broken := testutil.WriteCorrupt(t, t.TempDir(), "broken.apk")

	_, err := run(t, "--host-abi", "arm64-v8a", "check", broken)
	require.NoError(t, err)

	_, err = run(t, "--host-abi", "arm64-v8a", "--unknown-policy", "deny", "check", broken)
	require.Error(t, err)
}

func TestStageAndVerify(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk", testutil.File("lib/armeabi-v7a/libgame.so", "game"))
	profile := filepath.Join(dir, "emulator.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`
initialized = true
native = ["x86_64", "x86"]
emulated = ["armeabi-v7a"]
`), 0644))
	dest := filepath.Join(dir, "lib")

	out, err := run(t, "--host-abi", "x86_64", "--emulator-profile", profile, "stage", apk, dest)
	require.NoError(t, err)
	require.Contains(t, out, "Staged 1 libraries for armeabi-v7a (emulated): 1 copied, 0 up to date")
	require.Contains(t, out, "under translation")

	out, err = run(t, "--host-abi", "x86_64", "verify", dest)
	require.NoError(t, err)
	require.Contains(t, out, "1 libraries for armeabi-v7a match sha256:")

	require.NoError(t, os.WriteFile(filepath.Join(dest, "libgame.so"), []byte("gone"), 0644))
	_, err = run(t, "--host-abi", "x86_64", "verify", dest)
	require.Error(t, err)
}

func TestStage_NoCompatible(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteZip(t, dir, "app.apk", testutil.File("lib/riscv64/libfoo.so", "r"))

	out, err := run(t, "--host-abi", "arm64-v8a", "stage", apk, filepath.Join(dir, "lib"))
	require.NoError(t, err)
	require.Contains(t, out, "No compatible libraries (tried arm64-v8a, armeabi)")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "abistage version "+version)
}
