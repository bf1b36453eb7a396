// Package digest fingerprints a staged library set.
//
// Each library is serialized as a NAR (the Nix archive format, which is
// independent of timestamps and ownership) and the results are hashed
// together with SHA-256 in name order. Fingerprints are printed as
// "sha256:<nix base32>".
package digest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"zombiezen.com/go/nix"
	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"
)

const prefix = "sha256:"

// Fingerprint hashes the files named by names inside dir
func Fingerprint(dir string, names []string) (string, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	h := nix.NewHasher(nix.SHA256)
	for _, name := range sorted {
		fmt.Fprintf(h, "%s\x00", name)
		if err := nar.DumpPath(h, filepath.Join(dir, name)); err != nil {
			return "", fmt.Errorf("serializing %s: %w", name, err)
		}
	}

	return prefix + h.SumHash().Base32(), nil
}

// Validate checks that s is a well-formed fingerprint
func Validate(s string) error {
	enc, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return fmt.Errorf("fingerprint %q: missing %s prefix", s, prefix)
	}
	raw, err := nixbase32.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("fingerprint %q: %w", s, err)
	}
	if want := nix.SHA256.Size(); len(raw) != want {
		return fmt.Errorf("fingerprint %q: want %d bytes, got %d", s, want, len(raw))
	}
	if _, err := nix.ParseHash(s); err != nil {
		return fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return nil
}
