package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/matzehuels/lockscan/pkg/cache"
	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// loadFiles returns opts.Files, or discovers and reads opts.Paths.
func loadFiles(opts Options) ([]lockfile.File, error) {
	if len(opts.Files) > 0 {
		return opts.Files, nil
	}
	m, err := lsio.NewMatcher(opts.Exclude)
	if err != nil {
		return nil, err
	}
	paths, err := lsio.Collect(opts.Paths, m)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("discovered lockfiles", "count", len(paths), "paths", paths)
	return lsio.ImportLockfiles(paths)
}

// parseFiles parses files, serving unchanged lockfiles from the cache.
// It returns the results in input order and the number of cache hits.
func (r *Runner) parseFiles(ctx context.Context, files []lockfile.File, opts Options) ([]lockfile.Result, int, error) {
	results := make([]lockfile.Result, len(files))
	keys := make([]string, len(files))

	var (
		misses []lockfile.File
		idx    []int
		hits   int
	)
	for i, f := range files {
		keys[i] = r.Keyer.ParseKey(cache.Hash([]byte(f.Content)), filepath.Base(f.Name))
		if data, ok, err := r.Cache.Get(ctx, keys[i]); err == nil && ok {
			var res lockfile.Result
			if json.Unmarshal(data, &res) == nil {
				results[i] = res
				hits++
				continue
			}
		}
		misses = append(misses, f)
		idx = append(idx, i)
	}

	parsed, err := lockfile.ParseFilesContext(ctx, misses)
	if err != nil {
		return nil, 0, err
	}
	for j, res := range parsed {
		i := idx[j]
		results[i] = res
		if data, err := json.Marshal(res); err == nil {
			if err := r.Cache.Set(ctx, keys[i], data, opts.ParseTTL); err != nil {
				opts.Logger.Debug("cache write failed", "file", files[i].Name, "error", err)
			}
		}
	}
	return results, hits, nil
}
