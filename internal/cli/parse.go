package cli

import (
	"strings"

	"github.com/spf13/cobra"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/pipeline"
)

// parseOptions holds flags for the parse command.
type parseOptions struct {
	output    string
	conflicts bool
	detailed  bool
	exclude   []string
	noCache   bool
	strict    bool
	filename  string
}

// fileOutput is one lockfile in detailed parse output.
type fileOutput struct {
	Path string `json:"path"`
	lockfile.Result
}

// parseOutput is the object written when --detailed or --conflicts is set.
type parseOutput struct {
	Dependencies []lockfile.Dependency `json:"dependencies"`
	Files        []fileOutput          `json:"files,omitempty"`
	Conflicts    []lockfile.Conflict   `json:"conflicts,omitempty"`
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [path...]",
		Short: "Extract dependencies from lockfiles",
		Long: `Parse lockfiles and print the merged, de-duplicated dependency list as JSON.

Paths may be files or directories; directories are searched recursively,
skipping node_modules and VCS directories. Use "-" to read a single lockfile
from standard input.

Malformed entries are reported on stderr and skipped; use --strict to fail
instead.`,
		Example: `  lockscan parse
  lockscan parse package-lock.json -o deps.json
  lockscan parse . --detailed --conflicts
  cat pnpm-lock.yaml | lockscan parse - --filename pnpm-lock.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.conflicts, "conflicts", false, "include integrity conflicts between lockfiles")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include per-file results and errors")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "glob patterns to skip while searching directories")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the parse cache")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any lockfile has parse errors")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "file name hint when reading standard input")

	return cmd
}

func (c *CLI) runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))
	cfg, err := c.loadConfig(targetOf(args))
	if err != nil {
		return err
	}

	store, keyer, err := c.openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, keyer, loggerFromContext(ctx))
	defer runner.Close()

	popts := pipeline.Options{Exclude: append(cfg.Scan.Exclude, opts.exclude...)}
	if fromStdin(args) {
		popts.Files, err = readInputs(cmd, args, opts.filename, nil)
		if err != nil {
			return err
		}
	} else {
		popts.Paths = args
	}

	result, err := runner.Parse(ctx, popts)
	if err != nil {
		return err
	}
	prog.done("parse complete", "files", result.Stats.FileCount, "dependencies", result.Stats.DependencyCount)
	printParseStats(result.Stats.FileCount, result.Stats.DependencyCount, result.Stats.ErrorCount, result.CacheInfo.ParseHits)

	if opts.strict && result.Stats.ErrorCount > 0 {
		return lserrors.New(lserrors.ErrCodeInvalidLockfile, "%d parse error(s) in %s",
			result.Stats.ErrorCount, strings.Join(result.FailedFiles(), ", "))
	}

	deps := result.Dependencies
	if deps == nil {
		deps = []lockfile.Dependency{}
	}
	var v any = deps
	if opts.detailed || opts.conflicts {
		out := parseOutput{Dependencies: deps}
		if opts.detailed {
			for i, p := range result.Parsed {
				out.Files = append(out.Files, fileOutput{Path: result.Files[i], Result: p})
			}
		}
		if opts.conflicts {
			out.Conflicts = result.Conflicts
		}
		v = out
	}

	if opts.output != "" {
		if err := lsio.ExportJSON(v, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
		return nil
	}
	return lsio.WriteJSON(v, cmd.OutOrStdout())
}
