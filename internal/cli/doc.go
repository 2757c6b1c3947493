// Package cli implements the lockscan command-line interface.
//
// This package provides commands for detecting and parsing npm, yarn and
// pnpm lockfiles, scanning the resulting dependency set, serving the engine
// over HTTP and managing the local cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - detect: Print the dialect of each lockfile
//   - parse: Extract and merge dependencies as JSON
//   - scan: Parse, submit to the scan API and write SARIF/markdown reports
//   - serve: Run the HTTP API
//   - cache: Manage the local cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
// Data goes to stdout; status lines and logs go to stderr.
package cli
