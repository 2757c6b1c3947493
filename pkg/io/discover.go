package io

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	".pnpm-store":  true,
	".yarn":        true,
}

// Matcher decides whether a slash-separated relative path is excluded.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles exclude patterns. "*" stays within one path segment
// and "**" spans any number of them. A pattern without a slash also matches
// the base name at any depth.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, lserrors.Wrap(lserrors.ErrCodeInvalidConfig, err, "invalid exclude pattern %q", p)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether rel (slash-separated, relative to the scan root)
// is excluded.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for _, g := range m.globs {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Discover walks root and returns the lockfiles below it, sorted. Files are
// recognized by name (package-lock.json, yarn.lock, pnpm-lock.yaml).
// Dependency and VCS directories are skipped, as is anything exclude
// matches.
func Discover(root string, exclude *Matcher) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, lserrors.Wrap(lserrors.ErrCodeFileNotFound, err, "%s not found", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || exclude.Match(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if lockfile.IsLockfileName(d.Name()) && !exclude.Match(rel) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(found)
	return found, nil
}

// Collect expands args (files or directories) into lockfile paths. Files
// named explicitly are kept even when their name is not a known lockfile
// name; content detection decides. An empty result is a NO_LOCKFILES error.
func Collect(args []string, exclude *Matcher) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, a := range args {
		paths, err := Discover(a, exclude)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, lserrors.New(lserrors.ErrCodeNoLockfiles, "no lockfiles found in %v", args)
	}
	return out, nil
}
