// errors.go
package abistage

import (
	"errors"
	"fmt"

	"github.com/arc-language/abistage/pkg/archive"
	"github.com/arc-language/abistage/pkg/stager"
)

var (
	// ErrArchiveUnreadable indicates the package archive could not be opened or read
	ErrArchiveUnreadable = archive.ErrUnreadable

	// ErrDestination indicates the staging directory could not be created or cleaned
	ErrDestination = stager.ErrDestination

	// ErrCopyFailed indicates a library could not be written
	ErrCopyFailed = stager.ErrCopyFailed

	// ErrNoMarker indicates a directory was never staged
	ErrNoMarker = stager.ErrNoMarker

	// ErrNoFingerprint indicates a staged directory has nothing to verify against
	ErrNoFingerprint = stager.ErrNoFingerprint

	// ErrFingerprintMismatch indicates staged libraries changed after staging
	ErrFingerprintMismatch = stager.ErrFingerprintMismatch

	// ErrPlatformNotSupported indicates the host architecture is not recognized
	ErrPlatformNotSupported = errors.New("platform not supported")
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Archive string // Archive path if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Archive != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Archive, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
