package lockfile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/lockscan/pkg/observability"
)

func TestParseFiles(t *testing.T) {
	files := []File{
		{
			Name:    "package-lock.json",
			Content: `{"lockfileVersion":3,"packages":{"node_modules/foo":{"version":"1.0.0"},"node_modules/shared":{"version":"2.0.0"}}}`,
		},
		{
			Name:    "yarn.lock",
			Content: "# yarn lockfile v1\n\nshared@^2.0.0:\n  version \"2.0.0\"\n  integrity sha512-SHARED\n\nbar@^3.0.0:\n  version \"3.0.0\"\n",
		},
		{
			Name:    "notes.txt",
			Content: "not a lockfile",
		},
	}

	want := []Dependency{
		{Name: "foo", Version: "1.0.0"},
		{Name: "shared", Version: "2.0.0", Integrity: "sha512-SHARED"},
		{Name: "bar", Version: "3.0.0"},
	}
	assertDeps(t, ParseFiles(files), want)
}

func TestParseFilesDetailed(t *testing.T) {
	files := []File{
		{Name: "pnpm-lock.yaml", Content: "lockfileVersion: '9.0'\npackages:\n  a@1.0.0: {}\n"},
		{Name: "yarn.lock", Content: "\x00\x01"},
	}

	results := ParseFilesDetailed(files)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Format != FormatPNPMv9 || !results[0].OK() {
		t.Errorf("results[0] = %+v, want clean pnpm-v9 result", results[0])
	}
	if results[1].Format != FormatUnknown || results[1].OK() {
		t.Errorf("results[1] = %+v, want unknown format with errors", results[1])
	}
}

func TestParseFilesDeterministic(t *testing.T) {
	var files []File
	for i := range 50 {
		files = append(files, File{
			Name:    "package-lock.json",
			Content: fmt.Sprintf(`{"lockfileVersion":3,"packages":{"node_modules/p%d":{"version":"1.0.%d"},"node_modules/common":{"version":"1.0.0"}}}`, i, i),
		})
	}

	first := ParseFiles(files)
	for range 5 {
		assertDeps(t, ParseFiles(files), first)
	}
	if len(first) != 51 {
		t.Errorf("got %d dependencies, want 51", len(first))
	}
}

func TestParseFilesEmpty(t *testing.T) {
	if got := ParseFiles(nil); got == nil || len(got) != 0 {
		t.Errorf("ParseFiles(nil) = %v, want empty slice", got)
	}
}

func TestParseFilesContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []File{{Name: "yarn.lock", Content: "# yarn lockfile v1\n"}}
	if _, err := ParseFilesContext(ctx, files); !errors.Is(err, context.Canceled) {
		t.Errorf("ParseFilesContext() error = %v, want context.Canceled", err)
	}
}

type countingHooks struct {
	observability.NoopParseHooks
	mu   sync.Mutex
	deps map[string]int
}

func (h *countingHooks) OnParseComplete(_ context.Context, _, format string, deps, _ int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[format] += deps
}

func TestParseFilesContextHooks(t *testing.T) {
	hooks := &countingHooks{deps: map[string]int{}}
	observability.SetParseHooks(hooks)
	defer observability.Reset()

	files := []File{
		{Name: "a/yarn.lock", Content: "# yarn lockfile v1\n\na@^1.0.0:\n  version \"1.0.0\"\n"},
		{Name: "b/yarn.lock", Content: "# yarn lockfile v1\n\nb@^1.0.0:\n  version \"1.0.0\"\n"},
		{Name: "junk", Content: "junk"},
	}
	if _, err := ParseFilesContext(context.Background(), files); err != nil {
		t.Fatalf("ParseFilesContext() error = %v", err)
	}
	if hooks.deps["yarn-v1"] != 2 {
		t.Errorf("yarn-v1 deps reported = %d, want 2", hooks.deps["yarn-v1"])
	}
	if _, ok := hooks.deps["unknown"]; !ok {
		t.Error("unknown format parse not reported")
	}
}
