package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// MaxLockfileSize bounds how much of a single lockfile is read. Large
// monorepo lockfiles reach tens of megabytes.
const MaxLockfileSize = 64 << 20

// ReadLockfile reads a lockfile body from r and names it name. Content
// beyond [MaxLockfileSize] is an INVALID_LOCKFILE error. A leading UTF-8
// byte order mark is kept; detection and the parsers tolerate it.
//
// ReadLockfile does not close r.
func ReadLockfile(r io.Reader, name string) (lockfile.File, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, MaxLockfileSize+1))
	if err != nil {
		return lockfile.File{}, fmt.Errorf("read %s: %w", name, err)
	}
	if n > MaxLockfileSize {
		return lockfile.File{}, lserrors.New(lserrors.ErrCodeInvalidLockfile,
			"%s exceeds the %d MiB lockfile limit", name, MaxLockfileSize>>20)
	}
	return lockfile.File{Name: name, Content: buf.String()}, nil
}

// ImportLockfile reads the lockfile at path. The returned File is named by
// path so format hints and error messages keep the location.
func ImportLockfile(path string) (lockfile.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lockfile.File{}, lserrors.Wrap(lserrors.ErrCodeFileNotFound, err, "lockfile %s not found", path)
		}
		return lockfile.File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLockfile(f, path)
}

// ImportLockfiles reads every path in order, stopping at the first error.
func ImportLockfiles(paths []string) ([]lockfile.File, error) {
	files := make([]lockfile.File, 0, len(paths))
	for _, p := range paths {
		f, err := ImportLockfile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
