package lockfile

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
)

// maxLegacyDepth bounds recursion into the lockfileVersion 1 dependency tree.
const maxLegacyDepth = 256

// npmParser reads package-lock.json and npm-shrinkwrap.json documents.
// Both npm dialects share the same extraction; they differ only in which
// sections npm writes.
type npmParser struct {
	format Format
}

func (p npmParser) Format() Format { return p.format }

type npmDocument struct {
	Packages     map[string]json.RawMessage `json:"packages"`
	Dependencies map[string]json.RawMessage `json:"dependencies"`
}

type npmPackage struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Integrity string `json:"integrity"`
	Link      bool   `json:"link"`
}

type npmLegacyDependency struct {
	Version      string                     `json:"version"`
	Integrity    string                     `json:"integrity"`
	Dependencies map[string]json.RawMessage `json:"dependencies"`
}

func (p npmParser) Parse(content string) Result {
	c := newCollector(p.format)
	content = strings.TrimPrefix(content, "\ufeff")

	var doc npmDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		line, col := jsonErrorPosition(content, err)
		return c.structural(line, col, "invalid JSON: %v", err)
	}

	// The packages map supersedes the legacy tree whenever npm wrote both.
	if doc.Packages != nil {
		p.parsePackages(c, content, doc.Packages)
	} else {
		p.parseLegacy(c, content, doc.Dependencies, 0)
	}
	return c.result()
}

func (p npmParser) parsePackages(c *collector, content string, packages map[string]json.RawMessage) {
	for _, key := range slices.Sorted(maps.Keys(packages)) {
		// "" is the project root; paths outside node_modules are workspace sources.
		if !strings.Contains(key, "node_modules/") {
			continue
		}

		var pkg npmPackage
		if err := json.Unmarshal(packages[key], &pkg); err != nil {
			c.fail(c.keyLine(content, key), "malformed package entry %q: %v", key, err)
			continue
		}
		if pkg.Link {
			continue
		}

		name := pkg.Name
		if name == "" {
			name = npmPathName(key)
		}
		if pkg.Version == "" {
			c.fail(c.keyLine(content, key), "package entry %q has no version", key)
			continue
		}
		c.add(Dependency{
			Name:      name,
			Version:   pkg.Version,
			Integrity: pkg.Integrity,
		}, func() int { return c.keyLine(content, key) })
	}
}

func (p npmParser) parseLegacy(c *collector, content string, deps map[string]json.RawMessage, depth int) {
	if depth > maxLegacyDepth {
		c.fail(0, "dependency tree nested deeper than %d levels", maxLegacyDepth)
		return
	}
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		var dep npmLegacyDependency
		if err := json.Unmarshal(deps[name], &dep); err != nil {
			c.fail(c.keyLine(content, name), "malformed dependency %q: %v", name, err)
			continue
		}
		if dep.Version == "" {
			c.fail(c.keyLine(content, name), "dependency %q has no version", name)
		} else {
			c.add(Dependency{
				Name:      name,
				Version:   dep.Version,
				Integrity: dep.Integrity,
			}, func() int { return c.keyLine(content, name) })
		}
		p.parseLegacy(c, content, dep.Dependencies, depth+1)
	}
}

// npmPathName derives a package name from an install path such as
// node_modules/a/node_modules/@scope/b.
func npmPathName(key string) string {
	i := strings.LastIndex(key, "node_modules/")
	if i < 0 {
		return ""
	}
	return key[i+len("node_modules/"):]
}

func jsonErrorPosition(content string, err error) (line, column int) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return position(content, syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return position(content, typeErr.Offset)
	}
	return 0, 0
}
