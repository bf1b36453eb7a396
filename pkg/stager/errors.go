package stager

import "errors"

var (
	// ErrDestination indicates the destination directory could not be created or cleaned
	ErrDestination = errors.New("destination directory unusable")

	// ErrCopyFailed indicates a library could not be written
	ErrCopyFailed = errors.New("library copy failed")

	// ErrNoMarker indicates the destination has never been staged
	ErrNoMarker = errors.New("no staging marker")

	// ErrNoFingerprint indicates the marker was written without a fingerprint
	ErrNoFingerprint = errors.New("no fingerprint recorded")

	// ErrFingerprintMismatch indicates staged libraries changed after staging
	ErrFingerprintMismatch = errors.New("staged libraries changed")
)
