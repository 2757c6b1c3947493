package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/pipeline"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// maxListedFindings bounds the findings printed to the terminal.
const maxListedFindings = 10

// scanOptions holds flags for the scan command.
type scanOptions struct {
	sarif   string
	comment string
	summary string
	jsonOut bool
	repo    string

	refresh        bool
	noCache        bool
	failOnCritical bool
	failOnHigh     bool
	exclude        []string
	apiURL         string
	filename       string
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	opts := scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan lockfile dependencies for vulnerabilities",
		Long: `Parse lockfiles, submit the merged dependency set to the scan API and report
the findings.

The API key is read from LOCKSCAN_API_KEY. Identical dependency sets are
answered from the cache; use --refresh to force a new scan.

Reports can be written as SARIF (for code scanning), a pull request comment
and a check summary. Inside GitHub Actions the counts are also written to
the step outputs and the comment to the job summary.

Exits non-zero when the fail-on policy is violated.`,
		Example: `  lockscan scan
  lockscan scan . --sarif results.sarif --fail-on-high
  lockscan scan packages/ --comment comment.md --refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sarif, "sarif", "", "write a SARIF 2.1.0 report to this file")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "write a pull request comment (markdown) to this file")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "write a check summary to this file")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "write the full result as JSON to stdout")
	cmd.Flags().StringVar(&opts.repo, "repo", os.Getenv(envGitHubRepository), "repository (owner/name or URL) recorded in SARIF")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached scan results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.failOnCritical, "fail-on-critical", false, "exit non-zero on critical issues (overrides config)")
	cmd.Flags().BoolVar(&opts.failOnHigh, "fail-on-high", false, "exit non-zero on high or critical issues (overrides config)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "glob patterns to skip while searching directories")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "scan API base URL (overrides config and LOCKSCAN_API_URL)")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "file name hint when reading standard input")

	return cmd
}

func (c *CLI) runScan(cmd *cobra.Command, args []string, opts scanOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := c.loadConfig(targetOf(args))
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.URL = opts.apiURL
	}
	if flags.Changed("fail-on-critical") {
		cfg.Scan.FailOnCritical = opts.failOnCritical
	}
	if flags.Changed("fail-on-high") {
		cfg.Scan.FailOnHigh = opts.failOnHigh
	}

	store, keyer, err := c.openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	scfg := cfg.ScanConfig()
	scfg.Cache = store
	scfg.Keyer = keyer
	scfg.Logger = logger
	client, err := scan.NewClient(scfg)
	if err != nil {
		store.Close()
		return err
	}

	runner := pipeline.NewRunner(store, keyer, logger)
	runner.Scanner = client
	defer runner.Close()

	popts := pipeline.Options{
		Exclude: append(cfg.Scan.Exclude, opts.exclude...),
		Refresh: opts.refresh,
	}
	if fromStdin(args) {
		popts.Files, err = readInputs(cmd, args, opts.filename, nil)
		if err != nil {
			return err
		}
	} else {
		popts.Paths = args
	}

	spinner := newSpinnerWithContext(ctx, "Scanning dependencies...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Scan failed")
		return err
	}
	spinner.Stop()
	prog.done("scan complete", "packages", result.Stats.DependencyCount, "total", result.Outputs.TotalCount)
	printParseStats(result.Stats.FileCount, result.Stats.DependencyCount, result.Stats.ErrorCount, result.CacheInfo.ParseHits)

	if err := writeReports(result, opts); err != nil {
		return err
	}

	if opts.jsonOut {
		if err := lsio.WriteJSON(result, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		printOutputs(result.Outputs)
		printFindings(result.Response, maxListedFindings)
	}

	return result.Outputs.Check(cfg.Policy())
}

// writeReports writes the requested report files and, inside GitHub
// Actions, the step outputs and job summary. It records the SARIF path in
// result.Outputs.
func writeReports(result *pipeline.Result, opts scanOptions) error {
	f := report.NewFormatter(relativePaths(result.Files)...)
	resp := result.Response

	if opts.sarif != "" {
		if err := lsio.ExportJSON(f.SARIF(resp, opts.repo), opts.sarif); err != nil {
			return err
		}
		result.Outputs.SARIFFile = opts.sarif
		printFile(opts.sarif)
	}
	if opts.comment != "" {
		if err := lsio.ExportText(f.PRComment(resp), opts.comment); err != nil {
			return err
		}
		printFile(opts.comment)
	}
	if opts.summary != "" {
		if err := lsio.ExportText(f.CheckSummary(resp), opts.summary); err != nil {
			return err
		}
		printFile(opts.summary)
	}

	var errs []error
	if path := os.Getenv(envGitHubOutput); path != "" {
		errs = append(errs, writeGitHubOutputs(path, result.Outputs))
	}
	if path := os.Getenv(envGitHubStepSummary); path != "" {
		errs = append(errs, appendStepSummary(path, f.PRComment(resp)))
	}
	return errors.Join(errs...)
}

// relativePaths returns paths relative to the working directory in slash
// form, for report locations. Paths outside it are kept as given.
func relativePaths(paths []string) []string {
	wd, err := os.Getwd()
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
		if err != nil {
			continue
		}
		abs, absErr := filepath.Abs(p)
		if absErr != nil {
			continue
		}
		if rel, relErr := filepath.Rel(wd, abs); relErr == nil && filepath.IsLocal(rel) {
			out[i] = filepath.ToSlash(rel)
		}
	}
	return out
}
