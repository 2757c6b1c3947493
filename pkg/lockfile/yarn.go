package lockfile

import (
	"strconv"
	"strings"
)

// yarnParser reads classic (v1) yarn.lock files: blank-line separated
// blocks, each opened by one or more requirement headers.
type yarnParser struct{}

func (yarnParser) Format() Format { return FormatYarnV1 }

// yarnBlock is one entry under construction.
type yarnBlock struct {
	line        int
	header      string
	fieldIndent int
	version     string
	resolved    string
	integrity   string
}

func (yarnParser) Parse(content string) Result {
	c := newCollector(FormatYarnV1)
	content = strings.TrimPrefix(content, "\ufeff")

	var blk *yarnBlock
	flush := func() {
		if blk != nil {
			emitYarnBlock(c, blk)
			blk = nil
		}
	}

	for i, raw := range strings.Split(content, "\n") {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == 0 {
			flush()
			if !strings.HasSuffix(trimmed, ":") {
				c.fail(lineNo, "malformed entry header %q: missing trailing colon", truncate(trimmed))
				continue
			}
			blk = &yarnBlock{line: lineNo, header: strings.TrimSuffix(trimmed, ":")}
			continue
		}

		// Field lines of a header that failed to parse are dropped with it.
		if blk == nil {
			continue
		}
		if blk.fieldIndent == 0 {
			blk.fieldIndent = indent
		}
		if indent > blk.fieldIndent {
			continue // nested map such as dependencies
		}

		key, value := splitYarnField(trimmed)
		switch key {
		case "version":
			blk.version = value
		case "resolved":
			blk.resolved = value
		case "integrity":
			blk.integrity = value
		}
	}
	flush()

	return c.result()
}

func emitYarnBlock(c *collector, blk *yarnBlock) {
	name := yarnPackageName(blk.header)
	if name == "" {
		c.fail(blk.line, "cannot determine package name from %q", truncate(blk.header))
		return
	}
	if blk.version == "" {
		c.fail(blk.line, "entry %q has no version", truncate(blk.header))
		return
	}

	integrity := blk.integrity
	if integrity == "" {
		integrity = resolvedFragment(blk.resolved)
	}
	c.add(Dependency{Name: name, Version: blk.version, Integrity: integrity}, at(blk.line))
}

// yarnPackageName extracts the package name from the first requirement of a
// header like `"@babel/core@^7.0.0", "@babel/core@^7.1.0"`. npm aliases
// (`alias@npm:real@^1.0.0`) resolve to the real package.
func yarnPackageName(header string) string {
	first, _, _ := strings.Cut(header, ",")
	name, rng := splitRequirement(unquote(strings.TrimSpace(first)))
	if target, ok := strings.CutPrefix(rng, "npm:"); ok {
		if aliased, _ := splitRequirement(target); aliased != "" {
			return aliased
		}
	}
	return name
}

// splitRequirement splits "name@range" at the first @ after an optional
// scope. A requirement without a range yields an empty range.
func splitRequirement(req string) (name, rng string) {
	start := 0
	if strings.HasPrefix(req, "@") {
		start = 1
	}
	i := strings.IndexByte(req[start:], '@')
	if i < 0 {
		return req, ""
	}
	return req[:start+i], req[start+i+1:]
}

// splitYarnField splits `key "value"` or `key value`. A trailing colon on
// the key is tolerated.
func splitYarnField(s string) (key, value string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return unquote(strings.TrimSuffix(s, ":")), ""
	}
	key = unquote(strings.TrimSuffix(s[:i], ":"))
	return key, unquote(strings.TrimSpace(s[i+1:]))
}

// resolvedFragment returns the hash fragment of a resolved tarball URL.
func resolvedFragment(resolved string) string {
	_, fragment, ok := strings.Cut(resolved, "#")
	if !ok {
		return ""
	}
	return fragment
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// truncate shortens s for inclusion in error messages.
func truncate(s string) string {
	const limit = 80
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
