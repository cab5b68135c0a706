// Package testutil provides helpers for dopatch tests.
//
// Key components:
//   - MemFs: an afero in-memory filesystem seeded from a path/content map
//   - Isolate: points the XDG homes at temporary directories and clears
//     DOPATCH_* variables, so user configuration never leaks into a test
//
// All test data should be defined inline, not in external files.
package testutil
