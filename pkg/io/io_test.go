package io

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"package-lock.json",
		"web/yarn.lock",
		"api/pnpm-lock.yaml",
		"api/package.json",
		"node_modules/dep/package-lock.json",
		".git/yarn.lock",
		"test/fixtures/broken/yarn.lock",
		"tools/pnpm-lock.yaml",
	)

	tests := []struct {
		name    string
		exclude []string
		want    []string
	}{
		{
			name: "all",
			want: []string{"api/pnpm-lock.yaml", "package-lock.json", "test/fixtures/broken/yarn.lock", "tools/pnpm-lock.yaml", "web/yarn.lock"},
		},
		{
			name:    "double star",
			exclude: []string{"**/fixtures/**"},
			want:    []string{"api/pnpm-lock.yaml", "package-lock.json", "tools/pnpm-lock.yaml", "web/yarn.lock"},
		},
		{
			name:    "directory",
			exclude: []string{"tools"},
			want:    []string{"api/pnpm-lock.yaml", "package-lock.json", "test/fixtures/broken/yarn.lock", "web/yarn.lock"},
		},
		{
			name:    "base name",
			exclude: []string{"yarn.lock"},
			want:    []string{"api/pnpm-lock.yaml", "package-lock.json", "tools/pnpm-lock.yaml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.exclude)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Discover(root, m)
			if err != nil {
				t.Fatal(err)
			}
			if r := rel(t, root, got); !slices.Equal(r, tt.want) {
				t.Errorf("Discover = %v, want %v", r, tt.want)
			}
		})
	}
}

func TestDiscoverFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "custom.lock")
	p := filepath.Join(root, "custom.lock")
	got, err := Discover(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{p}) {
		t.Errorf("Discover(file) = %v", got)
	}
}

func TestDiscoverMissing(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), nil)
	if !lserrors.Is(err, lserrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/yarn.lock", "b/package-lock.json")
	a := filepath.Join(root, "a")

	got, err := Collect([]string{a, root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r := rel(t, root, got); !slices.Equal(r, []string{"a/yarn.lock", "b/package-lock.json"}) {
		t.Errorf("Collect = %v", r)
	}

	_, err = Collect([]string{t.TempDir()}, nil)
	if !lserrors.Is(err, lserrors.ErrCodeNoLockfiles) {
		t.Errorf("empty dir err = %v, want NO_LOCKFILES", err)
	}
}

func TestNewMatcherInvalid(t *testing.T) {
	if _, err := NewMatcher([]string{"[unclosed"}); !lserrors.Is(err, lserrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestReadLockfile(t *testing.T) {
	f, err := ReadLockfile(strings.NewReader("lockfileVersion: '9.0'\n"), "pnpm-lock.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "pnpm-lock.yaml" || f.Content != "lockfileVersion: '9.0'\n" {
		t.Errorf("ReadLockfile = %+v", f)
	}
}

func TestReadLockfileTooLarge(t *testing.T) {
	r := bytes.NewReader(make([]byte, MaxLockfileSize+1))
	_, err := ReadLockfile(r, "huge.json")
	if !lserrors.Is(err, lserrors.ErrCodeInvalidLockfile) {
		t.Errorf("err = %v, want INVALID_LOCKFILE", err)
	}
}

func TestImportLockfiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "package-lock.json")
	p := filepath.Join(root, "package-lock.json")

	files, err := ImportLockfiles([]string{p})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != p || files[0].Content != "{}" {
		t.Errorf("ImportLockfiles = %+v", files)
	}

	_, err = ImportLockfiles([]string{p, filepath.Join(root, "missing.lock")})
	if !lserrors.Is(err, lserrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "deps.json")
	if err := ExportJSON(map[string]int{"a": 1}, jsonPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Errorf("ExportJSON wrote %q", data)
	}

	mdPath := filepath.Join(dir, "comment.md")
	if err := ExportText("## hi\n", mdPath); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(mdPath); string(data) != "## hi\n" {
		t.Errorf("ExportText wrote %q", data)
	}
}
