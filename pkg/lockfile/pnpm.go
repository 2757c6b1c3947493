package lockfile

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// pnpmParser reads pnpm-lock.yaml documents. Schema 6 keys packages as
// /name/version or /name@version; schema 9 as name@version. Both keep the
// tarball hash under resolution.integrity.
type pnpmParser struct {
	format Format
}

func (p pnpmParser) Format() Format { return p.format }

type pnpmPackage struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Resolution struct {
		Integrity string `yaml:"integrity"`
	} `yaml:"resolution"`
}

func (p pnpmParser) Parse(content string) Result {
	c := newCollector(p.format)

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return c.structural(yamlLine(err), 0, "invalid YAML: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return c.structural(0, 0, "empty document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return c.structural(root.Line, root.Column, "expected a mapping at the document root")
	}

	packages := mappingValue(root, "packages")
	if packages == nil || packages.Tag == "!!null" {
		return c.result()
	}
	if packages.Kind != yaml.MappingNode {
		return c.structural(packages.Line, packages.Column, "packages must be a mapping")
	}

	for i := 0; i+1 < len(packages.Content); i += 2 {
		p.parseEntry(c, packages.Content[i], packages.Content[i+1])
	}
	return c.result()
}

func (p pnpmParser) parseEntry(c *collector, key, value *yaml.Node) {
	if key.Kind != yaml.ScalarNode {
		c.failAt(key.Line, key.Column, "package key must be a string")
		return
	}

	var pkg pnpmPackage
	if err := value.Decode(&pkg); err != nil {
		c.failAt(key.Line, key.Column, "malformed package entry %q: %v", truncate(key.Value), err)
		return
	}

	// Explicit fields win: pnpm writes them when the key is a tarball or git URL.
	name, version, _ := splitPNPMKey(key.Value, p.format)
	if pkg.Name != "" {
		name = pkg.Name
	}
	if pkg.Version != "" {
		version = pkg.Version
	}
	if name == "" || version == "" {
		c.failAt(key.Line, key.Column, "cannot parse package key %q", truncate(key.Value))
		return
	}

	c.add(Dependency{
		Name:      name,
		Version:   version,
		Integrity: pkg.Resolution.Integrity,
	}, at(key.Line))
}

// splitPNPMKey recovers name and version from a packages key. The leading
// @scope/ segment belongs to the name; the first @ or / after it separates
// the version. Peer suffixes, "(react@18.2.0)" and the older
// "_react@18.2.0", are dropped.
func splitPNPMKey(key string, f Format) (name, version string, ok bool) {
	k := strings.TrimPrefix(key, "/")
	if i := strings.IndexByte(k, '('); i >= 0 {
		k = k[:i]
	}

	scope, rest := "", k
	if strings.HasPrefix(k, "@") {
		i := strings.IndexByte(k, '/')
		if i <= 1 {
			return "", "", false
		}
		scope, rest = k[:i+1], k[i+1:]
	}

	sep := strings.IndexAny(rest, "@/")
	if sep <= 0 || sep == len(rest)-1 {
		return "", "", false
	}
	name, version = scope+rest[:sep], rest[sep+1:]

	if f == FormatPNPMv6 {
		if i := strings.IndexByte(version, '_'); i > 0 {
			version = version[:i]
		}
	}
	return name, version, true
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func yamlLine(err error) int {
	m := yamlErrorLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
