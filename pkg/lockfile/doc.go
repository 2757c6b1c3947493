// Package lockfile extracts resolved dependencies from JavaScript package
// manager lockfiles.
//
// # Overview
//
// Five dialects are supported:
//
//   - npm-v2: package-lock.json with lockfileVersion 1 or 2
//   - npm-v3: package-lock.json with lockfileVersion 3
//   - yarn-v1: classic yarn.lock
//   - pnpm-v6: pnpm-lock.yaml with lockfileVersion 5.x or 6.x
//   - pnpm-v9: pnpm-lock.yaml with lockfileVersion 7 and later
//
// Every dialect is reduced to the same [Dependency] record: name, version
// and, when the lockfile records one, an integrity hash.
//
// # Parsing
//
// [Parse] detects the dialect and dispatches to its [Parser]:
//
//	res := lockfile.Parse(content, "yarn.lock")
//	for _, e := range res.Errors {
//	    log.Warn(e)
//	}
//	submit(res.Dependencies)
//
// Parsing never panics and never returns a Go error. Problems are reported
// in [Result.Errors] at two levels:
//
//   - Document level: the text is not valid JSON/YAML for its dialect, or no
//     dialect matched. The result has a single error and no dependencies.
//   - Entry level: one package entry is malformed. The entry is skipped, an
//     error with its line is recorded, and parsing continues.
//
// A result with errors is a partial success; callers should warn and carry on
// with whatever was recovered.
//
// # Detection
//
// [Detect] is content based. A filename only changes the order in which
// dialect signatures are tried ([DetectWithHint]); CI systems rename
// lockfiles, so the name is never trusted on its own.
//
// # Merging
//
// Repositories with several lockfiles are flattened with [ParseFiles], or
// [Merge] for already parsed results. Entries are unique by name and version;
// on integrity disagreement the first non-empty value in input order wins.
// [MergeWithConflicts] reports the disagreements it resolved.
//
// # Concurrency
//
// All functions are pure and keep no package state, so they are safe to
// call from multiple goroutines. [ParseFiles] parses files in parallel but
// its output depends only on input order.
package lockfile
