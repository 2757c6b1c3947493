package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// npmPreamble recovers lockfileVersion from JSON that fails to decode.
	npmPreamble = regexp.MustCompile(`^\s*\{[^{}]*?"lockfileVersion"\s*:\s*"?(\d+)`)

	// pnpmPreamble recovers lockfileVersion from YAML that fails to decode.
	pnpmPreamble = regexp.MustCompile(`(?m)^lockfileVersion:[ \t]*['"]?(\d+(?:\.\d+)?)`)

	// yarnEntry matches a top-level yarn v1 entry followed by its version field.
	yarnEntry = regexp.MustCompile(`(?m)^[^\s#][^\n]*:\r?\n[ \t]+version "`)
)

var yarnHeaders = []string{
	"# THIS IS AN AUTOGENERATED FILE",
	"# yarn lockfile v1",
}

type detector func(content string) Format

// Detect classifies lockfile content into one of the supported dialects.
// Detection is content based and never fails; [FormatUnknown] is returned
// when no dialect signature matches.
func Detect(content string) Format {
	return DetectWithHint(content, "")
}

// DetectWithHint is like [Detect] but lets a filename bias the order in which
// dialects are tried. The hint never decides the result on its own: the
// content must still carry the dialect's signature.
func DetectWithHint(content, filename string) (f Format) {
	defer func() {
		if recover() != nil {
			f = FormatUnknown
		}
	}()

	for _, detect := range detectOrder(filename) {
		if f := detect(content); f != FormatUnknown {
			return f
		}
	}
	return FormatUnknown
}

// detectOrder returns the detectors in priority order. Without a hint the
// order is npm, yarn, pnpm.
func detectOrder(filename string) []detector {
	switch formatHint(filename) {
	case FormatYarnV1:
		return []detector{detectYarn, detectNPM, detectPNPM}
	case FormatPNPMv9:
		return []detector{detectPNPM, detectNPM, detectYarn}
	default:
		return []detector{detectNPM, detectYarn, detectPNPM}
	}
}

// formatHint maps well-known lockfile names to the dialect family they
// usually contain. pnpm files report FormatPNPMv9 as the family marker.
func formatHint(filename string) Format {
	switch strings.ToLower(filepath.Base(filename)) {
	case "package-lock.json", "npm-shrinkwrap.json":
		return FormatNPMv2
	case "yarn.lock":
		return FormatYarnV1
	case "pnpm-lock.yaml", "pnpm-lock.yml":
		return FormatPNPMv9
	default:
		return FormatUnknown
	}
}

// IsLockfileName reports whether filename is a conventional lockfile name
// for one of the supported package managers.
func IsLockfileName(filename string) bool {
	return formatHint(filename) != FormatUnknown
}

func detectNPM(content string) Format {
	trimmed := strings.TrimLeft(strings.TrimPrefix(content, "\ufeff"), " \t\r\n")
	if !strings.HasPrefix(trimmed, "{") {
		return FormatUnknown
	}

	var doc struct {
		LockfileVersion json.RawMessage `json:"lockfileVersion"`
	}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		m := npmPreamble.FindStringSubmatch(trimmed)
		if m == nil {
			return FormatUnknown
		}
		return npmFormat(m[1])
	}
	if len(doc.LockfileVersion) == 0 {
		return FormatUnknown
	}
	return npmFormat(string(bytes.Trim(doc.LockfileVersion, `"`)))
}

func npmFormat(raw string) Format {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return FormatUnknown
	}
	switch {
	case v >= 3:
		return FormatNPMv3
	case v >= 1:
		return FormatNPMv2
	default:
		return FormatUnknown
	}
}

func detectYarn(content string) Format {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line == "" {
			continue
		}
		for _, h := range yarnHeaders {
			if strings.HasPrefix(line, h) {
				return FormatYarnV1
			}
		}
		break
	}
	if yarnEntry.MatchString(content) {
		return FormatYarnV1
	}
	return FormatUnknown
}

func detectPNPM(content string) Format {
	var doc struct {
		LockfileVersion any `yaml:"lockfileVersion"`
	}
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		m := pnpmPreamble.FindStringSubmatch(content)
		if m == nil {
			return FormatUnknown
		}
		return pnpmFormat(m[1])
	}
	if doc.LockfileVersion == nil {
		return FormatUnknown
	}
	return pnpmFormat(doc.LockfileVersion)
}

// pnpmFormat maps a lockfileVersion value ("6.0", 5.4, "9.0") to a dialect.
// Schemas up to major 6 share the slash-separated key layout.
func pnpmFormat(v any) Format {
	var raw string
	switch v := v.(type) {
	case string:
		raw = v
	case int, float64:
		raw = fmt.Sprint(v)
	default:
		return FormatUnknown
	}
	major, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return FormatUnknown
	}
	switch {
	case n >= 7:
		return FormatPNPMv9
	case n >= 5:
		return FormatPNPMv6
	default:
		return FormatUnknown
	}
}
