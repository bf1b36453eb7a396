/*
Package emulation describes the binary-translation subsystem as seen by the
resolver and the stager.

The subsystem itself lives elsewhere; this package only defines the
Coordinator it must implement plus a few ready-made implementations:

  - Static: a coordinator described by a TOML profile on disk
  - Disabled: a coordinator that was never initialized
  - Mock: a settable coordinator for tests

Profile format:

	initialized = true
	native = ["arm64-v8a"]
	emulated = ["armeabi-v7a", "armeabi"]

	[modules]
	armeabi-v7a = "/opt/qemu/libqemu-arm.so"

Native and emulated lists are ordered by priority. An emulated ABI is
available when it has no module entry or when its module file exists; the
check is repeated on every query so modules installed later are picked up.

The coordinator's state may change between reads. Callers must not assume
two reads observe the same state.
*/
package emulation
