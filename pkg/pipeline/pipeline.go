// Package pipeline provides the lockfile scanning pipeline for lockscan.
//
// This package implements the complete discover → parse → scan pipeline used
// by the CLI and the HTTP server. Centralizing it keeps caching, logging and
// error reporting identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Discover: Expand paths into lockfiles, honoring exclude globs
//  2. Parse: Detect and parse every lockfile concurrently, then merge
//  3. Scan: Submit the merged dependency set to the scan API
//
// The parse stage caches each lockfile's result by content hash, so
// unchanged lockfiles are not parsed twice across runs.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Scanner = scanClient
//	result, err := runner.Execute(ctx, pipeline.Options{Paths: []string{"."}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Outputs.CriticalCount)
//
// Run the parse stage alone:
//
//	result, err := runner.Parse(ctx, pipeline.Options{Files: files})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultParseTTL is how long a cached parse result stays valid. Results
	// depend only on content and filename, so the TTL only bounds disk use.
	DefaultParseTTL = 7 * 24 * time.Hour

	// DefaultPath is scanned when no paths or files are given.
	DefaultPath = "."
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Discover options
	Paths   []string `json:"paths,omitempty"`
	Exclude []string `json:"exclude,omitempty"`

	// Files are in-memory lockfiles; when set, Paths is ignored.
	Files []lockfile.File `json:"files,omitempty"`

	// Parse options
	ParseTTL time.Duration `json:"-"`

	// Scan options
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Files are the lockfile names, in parse order.
	Files []string `json:"files"`

	// Parsed holds one result per file, aligned with Files.
	Parsed []lockfile.Result `json:"parsed"`

	// Dependencies is the merged dependency list.
	Dependencies []lockfile.Dependency `json:"dependencies"`

	// Conflicts lists integrity disagreements resolved by the merge.
	Conflicts []lockfile.Conflict `json:"conflicts,omitempty"`

	// Response is the scan response; nil after a parse-only run.
	Response *scan.Response `json:"response,omitempty"`

	// Outputs are the severity counts of Response.
	Outputs report.Outputs `json:"outputs"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo `json:"cacheInfo"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount       int           `json:"fileCount"`
	DependencyCount int           `json:"dependencyCount"`
	ErrorCount      int           `json:"errorCount"`
	ParseTime       time.Duration `json:"parseTime"`
	ScanTime        time.Duration `json:"scanTime"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHits   int `json:"parseHits"`   // Lockfiles whose result came from cache
	ParseMisses int `json:"parseMisses"` // Lockfiles parsed in this run
}

// FailedFiles returns the names of files that produced parse errors.
func (r *Result) FailedFiles() []string {
	var out []string
	for i, p := range r.Parsed {
		if !p.OK() {
			out = append(out, r.Files[i])
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Files) == 0 && len(o.Paths) == 0 {
		o.Paths = []string{DefaultPath}
	}
	for _, f := range o.Files {
		if f.Name == "" {
			return lserrors.New(lserrors.ErrCodeInvalidInput, "lockfile name is required")
		}
	}
	if o.ParseTTL == 0 {
		o.ParseTTL = DefaultParseTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
