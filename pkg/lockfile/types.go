package lockfile

import "fmt"

// Format identifies a lockfile dialect. The zero value [FormatUnknown] means
// no dialect signature matched.
type Format string

// Supported dialects.
const (
	FormatUnknown Format = ""
	FormatNPMv2   Format = "npm-v2"
	FormatNPMv3   Format = "npm-v3"
	FormatYarnV1  Format = "yarn-v1"
	FormatPNPMv6  Format = "pnpm-v6"
	FormatPNPMv9  Format = "pnpm-v9"
)

// Formats returns every supported dialect.
func Formats() []Format {
	return []Format{FormatNPMv2, FormatNPMv3, FormatYarnV1, FormatPNPMv6, FormatPNPMv9}
}

// Known reports whether f is one of the supported dialects.
func (f Format) Known() bool {
	switch f {
	case FormatNPMv2, FormatNPMv3, FormatYarnV1, FormatPNPMv6, FormatPNPMv9:
		return true
	}
	return false
}

// String returns the dialect tag, or "unknown" for [FormatUnknown].
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// Dependency is a single resolved package recorded in a lockfile.
type Dependency struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Integrity string `json:"integrity,omitempty"`
}

// String renders the dependency as name@version.
func (d Dependency) String() string { return d.Name + "@" + d.Version }

// ParseError describes a recoverable problem found while parsing.
// Line and Column are 1-based; zero means the position is unknown.
type ParseError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (e ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

// Result is the outcome of parsing one lockfile. Dependencies may be
// non-empty even when Errors is non-empty.
type Result struct {
	Dependencies []Dependency `json:"dependencies"`
	Format       Format       `json:"format"`
	Errors       []ParseError `json:"errors"`
}

// OK reports whether the lockfile parsed without any errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// File is a named lockfile body for batch parsing.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
