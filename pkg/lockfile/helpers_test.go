package lockfile

import (
	"slices"
	"testing"
)

func assertDeps(t *testing.T, got, want []Dependency) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("dependencies mismatch\n got: %v\nwant: %v", got, want)
	}
}

func assertErrorCount(t *testing.T, res Result, want int) {
	t.Helper()
	if len(res.Errors) != want {
		t.Errorf("got %d errors, want %d: %v", len(res.Errors), want, res.Errors)
	}
}
