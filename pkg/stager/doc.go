// Package stager copies a package's native libraries into its private
// library directory.
//
// Candidate ABIs are tried in order and the first one that supplies at
// least one .so wins:
//
//  1. the host's own ABI
//  2. the emulator's native-supported ABIs, if it is initialized
//  3. the emulator's emulated ABIs that are currently available
//  4. armeabi, for legacy packages
//
// Libraries are flattened into the destination directory by base name, so
// only one ABI's set may live there at a time. A marker file records which
// ABI is staged; switching ABI removes the previous set first.
//
// A library whose destination already exists with the entry's uncompressed
// size is not copied again. This is a size check only: a damaged file of the
// right length is not detected here. Verify recomputes a content fingerprint
// for callers that need a stronger check.
package stager
