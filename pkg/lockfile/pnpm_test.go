package lockfile

import (
	"testing"
)

func TestPNPMParse(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		format     Format
		want       []Dependency
		wantErrors int
	}{
		{
			name: "schema 6",
			content: `lockfileVersion: '6.0'

dependencies:
  foo:
    specifier: ^1.0.0
    version: 1.0.0

packages:

  /foo@1.0.0:
    resolution: {integrity: sha512-AAA}
    dev: false

  /@babel/core@7.22.0(react@18.2.0):
    resolution: {integrity: sha512-BBB}
    dev: true
`,
			format: FormatPNPMv6,
			want: []Dependency{
				{Name: "foo", Version: "1.0.0", Integrity: "sha512-AAA"},
				{Name: "@babel/core", Version: "7.22.0", Integrity: "sha512-BBB"},
			},
		},
		{
			name: "schema 5 slash keys",
			content: `lockfileVersion: 5.4

packages:

  /foo/1.0.0:
    resolution: {integrity: sha512-AAA}

  /@scope/bar/2.0.0_react@18.2.0:
    resolution: {integrity: sha512-BBB}
`,
			format: FormatPNPMv6,
			want: []Dependency{
				{Name: "foo", Version: "1.0.0", Integrity: "sha512-AAA"},
				{Name: "@scope/bar", Version: "2.0.0", Integrity: "sha512-BBB"},
			},
		},
		{
			name: "schema 9",
			content: `lockfileVersion: '9.0'

settings:
  autoInstallPeers: true
  excludeLinksFromLockfile: false

importers:

  .:
    dependencies:
      foo:
        specifier: ^1.0.0
        version: 1.0.0

packages:

  foo@1.0.0:
    resolution: {integrity: sha512-AAA}

  '@scope/bar@2.0.0':
    resolution: {integrity: sha512-BBB}

snapshots:

  foo@1.0.0: {}
`,
			format: FormatPNPMv9,
			want: []Dependency{
				{Name: "foo", Version: "1.0.0", Integrity: "sha512-AAA"},
				{Name: "@scope/bar", Version: "2.0.0", Integrity: "sha512-BBB"},
			},
		},
		{
			name: "explicit name and version",
			content: `lockfileVersion: '9.0'

packages:

  lib@https://codeload.github.com/acme/lib/tar.gz/abc123:
    resolution: {tarball: https://codeload.github.com/acme/lib/tar.gz/abc123}
    name: lib
    version: 0.3.1
`,
			format: FormatPNPMv9,
			want:   []Dependency{{Name: "lib", Version: "0.3.1"}},
		},
		{
			name: "unparseable key",
			content: `lockfileVersion: '9.0'

packages:

  nonsense:
    resolution: {integrity: sha512-X}

  ok@1.0.0:
    resolution: {integrity: sha512-OK}
`,
			format:     FormatPNPMv9,
			want:       []Dependency{{Name: "ok", Version: "1.0.0", Integrity: "sha512-OK"}},
			wantErrors: 1,
		},
		{
			name: "entry not a mapping",
			content: `lockfileVersion: '9.0'

packages:
  bad@1.0.0: [1, 2]
  ok@1.0.0:
    resolution: {integrity: sha512-OK}
`,
			format:     FormatPNPMv9,
			want:       []Dependency{{Name: "ok", Version: "1.0.0", Integrity: "sha512-OK"}},
			wantErrors: 1,
		},
		{
			name:    "no packages",
			content: "lockfileVersion: '9.0'\n\nimporters:\n  .: {}\n",
			format:  FormatPNPMv9,
			want:    []Dependency{},
		},
		{
			name:    "empty packages",
			content: "lockfileVersion: '6.0'\npackages:\n",
			format:  FormatPNPMv6,
			want:    []Dependency{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.content, "pnpm-lock.yaml")
			if res.Format != tt.format {
				t.Errorf("Format = %q, want %q", res.Format, tt.format)
			}
			assertDeps(t, res.Dependencies, tt.want)
			assertErrorCount(t, res, tt.wantErrors)
		})
	}
}

func TestPNPMStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "lockfileVersion: '9.0'\npackages:\n  foo@1.0.0: [unclosed\n"},
		{"packages not a mapping", "lockfileVersion: '9.0'\npackages: [a, b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.content, "pnpm-lock.yaml")
			if res.Format != FormatPNPMv9 {
				t.Errorf("Format = %q, want %q", res.Format, FormatPNPMv9)
			}
			if len(res.Dependencies) != 0 {
				t.Errorf("got %d dependencies, want 0", len(res.Dependencies))
			}
			assertErrorCount(t, res, 1)
		})
	}
}

func TestPNPMErrorPosition(t *testing.T) {
	content := "lockfileVersion: '9.0'\n\npackages:\n\n  ok@1.0.0: {}\n\n  nonsense: {}\n"

	res := ParseAs(content, FormatPNPMv9)
	assertErrorCount(t, res, 1)
	if len(res.Errors) == 1 {
		if e := res.Errors[0]; e.Line != 7 || e.Column != 3 {
			t.Errorf("error at %d:%d, want 7:3", e.Line, e.Column)
		}
	}
}

func TestSplitPNPMKey(t *testing.T) {
	tests := []struct {
		key         string
		format      Format
		wantName    string
		wantVersion string
		wantOK      bool
	}{
		{"/foo/1.0.0", FormatPNPMv6, "foo", "1.0.0", true},
		{"/foo@1.0.0", FormatPNPMv6, "foo", "1.0.0", true},
		{"/@scope/foo/1.0.0", FormatPNPMv6, "@scope/foo", "1.0.0", true},
		{"/@scope/foo@1.0.0(react@18.2.0)", FormatPNPMv6, "@scope/foo", "1.0.0", true},
		{"/foo/1.0.0_react@18.2.0", FormatPNPMv6, "foo", "1.0.0", true},
		{"foo@1.0.0", FormatPNPMv9, "foo", "1.0.0", true},
		{"@scope/foo@1.0.0", FormatPNPMv9, "@scope/foo", "1.0.0", true},
		{"foo@1.0.0(bar@2.0.0)(baz@3.0.0)", FormatPNPMv9, "foo", "1.0.0", true},
		{"foo@1.0.0-beta_1", FormatPNPMv9, "foo", "1.0.0-beta_1", true},

		{"foo", FormatPNPMv9, "", "", false},
		{"foo@", FormatPNPMv9, "", "", false},
		{"@scope", FormatPNPMv9, "", "", false},
		{"@/foo@1.0.0", FormatPNPMv9, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, version, ok := splitPNPMKey(tt.key, tt.format)
			if ok != tt.wantOK || name != tt.wantName || version != tt.wantVersion {
				t.Errorf("splitPNPMKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.key, name, version, ok, tt.wantName, tt.wantVersion, tt.wantOK)
			}
		})
	}
}
