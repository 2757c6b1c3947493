package lockfile

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lockscan/pkg/observability"
)

// ParseFiles parses every file and merges the results (see [Merge]).
// Files are parsed concurrently; the merged order depends only on the order
// of files, never on scheduling.
func ParseFiles(files []File) []Dependency {
	return Merge(ParseFilesDetailed(files)...)
}

// ParseFilesDetailed parses every file concurrently and returns one Result
// per file, in input order. Callers use it when per-file errors must be
// reported alongside the merged list.
func ParseFilesDetailed(files []File) []Result {
	results, _ := ParseFilesContext(context.Background(), files)
	return results
}

// ParseFilesContext is [ParseFilesDetailed] with cancellation. Each file
// is reported to the registered [observability.ParseHooks]. The only error
// returned is the context's.
func ParseFilesContext(ctx context.Context, files []File) ([]Result, error) {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hooks := observability.Parse()
			hooks.OnParseStart(ctx, f.Name)
			start := time.Now()

			res := Parse(f.Content, f.Name)
			results[i] = res

			hooks.OnParseComplete(ctx, f.Name, res.Format.String(), len(res.Dependencies), len(res.Errors), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
