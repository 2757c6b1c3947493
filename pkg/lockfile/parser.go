package lockfile

import (
	"fmt"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
)

// Parser converts the text of one lockfile dialect into a [Result].
// Implementations never panic on malformed input and report problems
// through Result.Errors.
type Parser interface {
	// Format returns the dialect this parser handles.
	Format() Format
	// Parse extracts dependencies from content.
	Parse(content string) Result
}

// ParserFor returns the parser bound to a dialect.
func ParserFor(f Format) (Parser, bool) {
	switch f {
	case FormatNPMv2, FormatNPMv3:
		return npmParser{format: f}, true
	case FormatYarnV1:
		return yarnParser{}, true
	case FormatPNPMv6, FormatPNPMv9:
		return pnpmParser{format: f}, true
	default:
		return nil, false
	}
}

// Parse detects the dialect of content and parses it. The filename is an
// optional hint (see [DetectWithHint]). Parse never panics: unrecognized or
// malformed input yields a Result with a non-empty Errors slice.
func Parse(content, filename string) Result {
	f := DetectWithHint(content, filename)
	if f == FormatUnknown {
		return Result{
			Dependencies: []Dependency{},
			Format:       FormatUnknown,
			Errors:       []ParseError{{Message: "unrecognized lockfile format"}},
		}
	}
	return ParseAs(content, f)
}

// ParseAs parses content with the parser for f, skipping detection.
func ParseAs(content string, f Format) (res Result) {
	p, ok := ParserFor(f)
	if !ok {
		return Result{
			Dependencies: []Dependency{},
			Format:       FormatUnknown,
			Errors:       []ParseError{{Message: fmt.Sprintf("unsupported lockfile format %q", string(f))}},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Dependencies: []Dependency{},
				Format:       f,
				Errors:       []ParseError{{Message: fmt.Sprintf("internal parser failure: %v", r)}},
			}
		}
	}()
	return p.Parse(content)
}

// maxErrors bounds the entry-level errors kept for a single document so
// adversarial input cannot grow the result without limit.
const maxErrors = 1000

// collector accumulates dependencies and recoverable errors for one parse.
type collector struct {
	format  Format
	deps    []Dependency
	errs    []ParseError
	dropped int

	// lines is built on the first keyed error; see [collector.keyLine].
	lines *lineIndex
}

func newCollector(f Format) *collector {
	return &collector{format: f}
}

// fail records an entry-level error at line (0 when unknown).
func (c *collector) fail(line int, format string, args ...any) {
	c.failAt(line, 0, format, args...)
}

func (c *collector) failAt(line, column int, format string, args ...any) {
	if c.full() {
		c.dropped++
		return
	}
	c.errs = append(c.errs, ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	})
}

// full reports whether the error budget is exhausted. Callers use it to
// skip computing positions for errors that will be dropped.
func (c *collector) full() bool { return len(c.errs) >= maxErrors }

// add validates d and records it, or records an error instead. line is
// only evaluated on the error path.
func (c *collector) add(d Dependency, line func() int) bool {
	if err := lserrors.ValidatePackageName(d.Name); err != nil {
		c.fail(c.lineOf(line), "invalid package name %q: %s", d.Name, lserrors.UserMessage(err))
		return false
	}
	if d.Version == "" {
		c.fail(c.lineOf(line), "package %q has no version", d.Name)
		return false
	}
	c.deps = append(c.deps, d)
	return true
}

func (c *collector) lineOf(line func() int) int {
	if line == nil || c.full() {
		return 0
	}
	return line()
}

// keyLine returns the line of the first object key equal to key in
// content, or 0 once the error budget is spent.
func (c *collector) keyLine(content, key string) int {
	if c.full() {
		return 0
	}
	if c.lines == nil {
		c.lines = newLineIndex(content)
	}
	return c.lines.keyLine(key)
}

// at returns a constant line for [collector.add].
func at(line int) func() int {
	return func() int { return line }
}

// structural replaces everything collected so far with a single
// document-level error.
func (c *collector) structural(line, column int, format string, args ...any) Result {
	return Result{
		Dependencies: []Dependency{},
		Format:       c.format,
		Errors: []ParseError{{
			Message: fmt.Sprintf(format, args...),
			Line:    line,
			Column:  column,
		}},
	}
}

func (c *collector) result() Result {
	deps := c.deps
	if deps == nil {
		deps = []Dependency{}
	}
	errs := c.errs
	if errs == nil {
		errs = []ParseError{}
	}
	if c.dropped > 0 {
		errs = append(errs, ParseError{Message: fmt.Sprintf("%d further errors omitted", c.dropped)})
	}
	return Result{Dependencies: deps, Format: c.format, Errors: errs}
}
