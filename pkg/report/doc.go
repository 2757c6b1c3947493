// Package report renders scan responses for code review surfaces.
//
// A [Formatter] produces three views of a [scan.Response]:
//
//   - [Formatter.PRComment]: a markdown pull request comment with tables per
//     finding kind. The comment starts with a hidden marker so a CI step can
//     update it in place.
//   - [Formatter.SARIF]: a SARIF 2.1.0 log for code scanning upload. Severity
//     maps to level: CRITICAL and HIGH become "error", MEDIUM "warning", LOW
//     and INFO "note".
//   - [Formatter.CheckSummary]: a short summary for a check run.
//
// [Counts] reduces a response to [Outputs] and [Outputs.Check] applies a
// [Policy] to decide whether the build fails.
package report
