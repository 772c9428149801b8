// Package testutil provides fixtures for staging tests: declarative on-disk
// trees, tree snapshots for comparisons, archive writers and the NOOP patch
// set used across the patching tests.
//
// All fixtures are written under t.TempDir() and cleaned up by the testing
// package. Test data is defined inline rather than in external files.
package testutil
