package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockscan/pkg/cache"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// Scanner submits dependency sets for analysis. *scan.Client implements it.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Response, error)
	Rescan(ctx context.Context, req scan.Request) (*scan.Response, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, scanner and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Scanner Scanner
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Set Scanner before calling Execute.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete discover → parse → scan pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if r.Scanner == nil {
		return nil, lserrors.New(lserrors.ErrCodeInvalidConfig, "no scanner configured")
	}
	result, err := r.Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	req := scan.NewRequest(result.Dependencies)
	scanStart := time.Now()
	var resp *scan.Response
	if opts.Refresh {
		resp, err = r.Scanner.Rescan(ctx, req)
	} else {
		resp, err = r.Scanner.Scan(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Response = resp
	result.Outputs = report.Counts(resp)
	result.Stats.ScanTime = time.Since(scanStart)

	opts.Logger.Debug("scanned dependencies",
		"packages", len(req.Dependencies),
		"critical", result.Outputs.CriticalCount,
		"high", result.Outputs.HighCount,
		"total", result.Outputs.TotalCount,
		"duration", result.Stats.ScanTime)

	return result, nil
}

// Parse runs the discover and parse stages.
func (r *Runner) Parse(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	files, err := loadFiles(opts)
	if err != nil {
		return nil, err
	}

	parseStart := time.Now()
	parsed, hits, err := r.parseFiles(ctx, files, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	result := &Result{
		Files:  make([]string, len(files)),
		Parsed: parsed,
	}
	for i, f := range files {
		result.Files[i] = f.Name
	}
	result.Dependencies, result.Conflicts = lockfile.MergeWithConflicts(parsed...)
	result.Stats.FileCount = len(files)
	result.Stats.DependencyCount = len(result.Dependencies)
	result.Stats.ParseTime = time.Since(parseStart)
	result.CacheInfo.ParseHits = hits
	result.CacheInfo.ParseMisses = len(files) - hits

	for i, p := range parsed {
		result.Stats.ErrorCount += len(p.Errors)
		if !p.OK() {
			opts.Logger.Warn("lockfile has errors",
				"file", files[i].Name,
				"format", p.Format,
				"errors", len(p.Errors),
				"first", p.Errors[0].Error())
		}
	}
	for _, c := range result.Conflicts {
		opts.Logger.Debug("integrity conflict", "package", c.Name, "version", c.Version, "kept", c.Kept)
	}

	opts.Logger.Debug("parsed lockfiles",
		"files", len(files),
		"dependencies", len(result.Dependencies),
		"errors", result.Stats.ErrorCount,
		"cached", hits,
		"duration", result.Stats.ParseTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
