// Package pkg provides the core libraries for lockscan.
//
// # Overview
//
// lockscan turns JavaScript lockfiles into the exact set of installed
// packages and submits that set to a scan API. The pkg directory is
// organized into these areas:
//
//  1. [lockfile] - Format detection, dialect parsers and merging
//  2. [io] - Lockfile discovery, reading and report export
//  3. [pipeline] - Orchestration (discover → parse → scan)
//  4. [scan] - Scan API client and wire types
//  5. [report] - PR comment, check summary and SARIF rendering
//  6. [cache], [httputil], [integrations] - Infrastructure
//  7. [server] - HTTP API for detection and parsing
//
// # Architecture
//
// The typical data flow through lockscan:
//
//	package-lock.json / yarn.lock / pnpm-lock.yaml
//	         ↓
//	    [lockfile] package (detect + parse + merge)
//	         ↓
//	    [scan] package (submit dependency set)
//	         ↓
//	    [report] package (counts, policy, SARIF, markdown)
//
// # Quick Start
//
// Parse every lockfile below a directory and scan the result:
//
//	client, err := scan.NewClient(scan.Config{BaseURL: url, APIKey: key})
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(nil, nil, logger)
//	runner.Scanner = client
//	result, err := runner.Execute(ctx, pipeline.Options{Paths: []string{"."}})
//	if err != nil {
//	    return err
//	}
//	return result.Outputs.Check(report.Policy{FailOnCritical: true})
//
// The engine itself needs nothing but content:
//
//	res := lockfile.Parse(content, "yarn.lock")
//	for _, d := range res.Dependencies {
//	    fmt.Println(d.Name, d.Version)
//	}
package pkg
