// Package io moves lockfiles and reports between the engine and the
// filesystem.
//
// # Import
//
// [Discover] walks a directory for lockfiles, recognized by name, skipping
// node_modules and VCS directories and honoring exclude globs compiled by
// [NewMatcher]:
//
//	m, _ := io.NewMatcher([]string{"**/fixtures/**", "examples/*"})
//	paths, err := io.Discover(".", m)
//
// [Collect] does the same for a mix of files and directories and fails with
// NO_LOCKFILES when nothing is found. [ImportLockfile] and [ImportLockfiles]
// read paths into [lockfile.File] values ready for batch parsing; bodies
// larger than [MaxLockfileSize] are rejected.
//
// # Export
//
// [WriteJSON] and [ExportJSON] write any value (a parse result, a scan
// response, a SARIF log) as two-space indented JSON. [ExportText] writes
// markdown reports.
package io
