// Package testutil builds fixture archives for tests.
//
// Fixtures are real zip files written into a test's temporary directory:
//
//	path := testutil.WriteZip(t, t.TempDir(), "app.apk",
//	    testutil.File("lib/arm64-v8a/libfoo.so", "ELF..."),
//	    testutil.File("classes.dex", "dex"),
//	)
//
// Entries may be stored, deflated, XZ or Zstandard compressed so that every
// decompressor the archive package registers is exercised.
package testutil
