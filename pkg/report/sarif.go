package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/lockscan/pkg/scan"
)

// SARIF format constants.
const (
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

// SARIF levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelNote    = "note"
	LevelNone    = "none"
)

// SARIF is a Static Analysis Results Interchange Format 2.1.0 log, limited
// to the properties code scanning platforms read.
type SARIF struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

type SARIFRun struct {
	Tool                     SARIFTool                 `json:"tool"`
	Results                  []SARIFResult             `json:"results"`
	VersionControlProvenance []SARIFVersionControlInfo `json:"versionControlProvenance,omitempty"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []SARIFRule `json:"rules"`
}

type SARIFRule struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	ShortDescription     SARIFMessage       `json:"shortDescription"`
	FullDescription      SARIFMessage       `json:"fullDescription"`
	DefaultConfiguration SARIFConfiguration `json:"defaultConfiguration"`
	HelpURI              string             `json:"helpUri,omitempty"`
}

type SARIFConfiguration struct {
	Level string `json:"level"`
}

type SARIFMessage struct {
	Text string `json:"text"`
}

type SARIFResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    SARIFMessage    `json:"message"`
	Locations  []SARIFLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
}

type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

type SARIFVersionControlInfo struct {
	RepositoryURI string `json:"repositoryUri"`
}

// Level maps a severity to a SARIF level.
func Level(s scan.Severity) string {
	switch s {
	case scan.SeverityCritical, scan.SeverityHigh:
		return LevelError
	case scan.SeverityMedium:
		return LevelWarning
	case scan.SeverityLow, scan.SeverityInfo:
		return LevelNote
	default:
		return LevelNone
	}
}

// SARIF converts resp into a SARIF log. repo ("owner/name" or a full URL)
// is recorded as version control provenance when non-empty. Every result
// points at the formatter's lockfiles.
func (f *Formatter) SARIF(resp *scan.Response, repo string) *SARIF {
	rules := map[string]SARIFRule{}
	addRule := func(r SARIFRule) {
		if existing, ok := rules[r.ID]; ok && levelRank(existing.DefaultConfiguration.Level) >= levelRank(r.DefaultConfiguration.Level) {
			return
		}
		rules[r.ID] = r
	}

	locations := f.locations()
	var results []SARIFResult

	if resp != nil {
		for _, fd := range resp.Findings {
			id := "finding/" + ruleSlug(fd.Type)
			addRule(SARIFRule{
				ID:                   id,
				Name:                 ruleName(fd.Type),
				ShortDescription:     SARIFMessage{Text: fd.Type + " chain between dependencies"},
				FullDescription:      SARIFMessage{Text: fmt.Sprintf("A %s flow from one installed package reaches a sink in another.", fd.Type)},
				DefaultConfiguration: SARIFConfiguration{Level: Level(fd.Severity)},
			})
			msg := fmt.Sprintf("[%s] %s: %s → %s. %s", fd.Severity, fd.ID, fd.SourcePackage, fd.SinkPackage, fd.Description)
			if fd.ShimURL != "" {
				msg += " Mitigation shim: " + fd.ShimURL
			}
			results = append(results, SARIFResult{
				RuleID:    id,
				Level:     Level(fd.Severity),
				Message:   SARIFMessage{Text: msg},
				Locations: locations,
				Properties: map[string]any{
					"cvss":          fd.CVSS,
					"sourcePackage": fd.SourcePackage,
					"sinkPackage":   fd.SinkPackage,
				},
			})
		}

		for _, m := range resp.SkeletonKeyMatches {
			id := "skeleton-key/" + ruleSlug(m.SkeletonKeyID)
			addRule(SARIFRule{
				ID:                   id,
				Name:                 "SkeletonKey" + ruleName(m.SkeletonKeyID),
				ShortDescription:     SARIFMessage{Text: fmt.Sprintf("Gadget property %q reachable (%s)", m.Prop, m.ImpactType)},
				FullDescription:      SARIFMessage{Text: fmt.Sprintf("Known gadget %s on %q in %s context enables %s.", m.SkeletonKeyID, m.Prop, m.Context, m.ImpactType)},
				DefaultConfiguration: SARIFConfiguration{Level: Level(m.Severity)},
			})
			results = append(results, SARIFResult{
				RuleID:    id,
				Level:     Level(m.Severity),
				Message:   SARIFMessage{Text: fmt.Sprintf("[%s] %s via %q matched by %s", m.Severity, m.ImpactType, m.Prop, strings.Join(m.MatchedPackages, ", "))},
				Locations: locations,
				Properties: map[string]any{
					"cvss":            m.CVSS,
					"matchedPackages": m.MatchedPackages,
				},
			})
		}

		for _, a := range resp.IntegrityAlerts {
			var level string
			switch a.Status {
			case scan.IntegrityMalicious:
				level = LevelError
			case scan.IntegrityMismatch:
				level = LevelWarning
			default:
				continue
			}
			id := "integrity/" + strings.ToLower(string(a.Status))
			addRule(SARIFRule{
				ID:                   id,
				Name:                 "Integrity" + ruleName(string(a.Status)),
				ShortDescription:     SARIFMessage{Text: "Lockfile hash does not match the registry"},
				FullDescription:      SARIFMessage{Text: "The integrity recorded in the lockfile differs from the officially published tarball hash."},
				DefaultConfiguration: SARIFConfiguration{Level: level},
			})
			msg := fmt.Sprintf("%s@%s integrity %s", a.PackageName, a.Version, a.Status)
			if a.OfficialHash != "" {
				msg += "; official hash " + a.OfficialHash
			}
			results = append(results, SARIFResult{RuleID: id, Level: level, Message: SARIFMessage{Text: msg}, Locations: locations})
		}

		for _, z := range resp.ZombieWarnings {
			const id = "zombie-package"
			addRule(SARIFRule{
				ID:                   id,
				Name:                 "ZombiePackage",
				ShortDescription:     SARIFMessage{Text: "Dependency appears abandoned or taken over"},
				FullDescription:      SARIFMessage{Text: "Maintenance signals such as maintainer count, publish age and ownership changes indicate elevated takeover risk."},
				DefaultConfiguration: SARIFConfiguration{Level: LevelNote},
			})
			results = append(results, SARIFResult{
				RuleID:    id,
				Level:     LevelNote,
				Message:   SARIFMessage{Text: fmt.Sprintf("%s has zombie score %.2f", z.PackageName, z.ZombieScore)},
				Locations: locations,
			})
		}
	}

	ruleList := make([]SARIFRule, 0, len(rules))
	for _, r := range rules {
		ruleList = append(ruleList, r)
	}
	slices.SortFunc(ruleList, func(a, b SARIFRule) int { return cmp.Compare(a.ID, b.ID) })
	if results == nil {
		results = []SARIFResult{}
	}

	run := SARIFRun{
		Tool: SARIFTool{Driver: SARIFDriver{
			Name:           f.ToolName,
			Version:        f.ToolVersion,
			InformationURI: f.InformationURI,
			Rules:          ruleList,
		}},
		Results: results,
	}
	if uri := repositoryURI(repo); uri != "" {
		run.VersionControlProvenance = []SARIFVersionControlInfo{{RepositoryURI: uri}}
	}

	return &SARIF{Version: SARIFVersion, Schema: SARIFSchema, Runs: []SARIFRun{run}}
}

func (f *Formatter) locations() []SARIFLocation {
	files := f.Lockfiles
	if len(files) == 0 {
		files = []string{"package-lock.json"}
	}
	locs := make([]SARIFLocation, 0, len(files))
	for _, p := range files {
		locs = append(locs, SARIFLocation{
			PhysicalLocation: SARIFPhysicalLocation{ArtifactLocation: SARIFArtifactLocation{URI: p}},
		})
	}
	return locs
}

func repositoryURI(repo string) string {
	repo = strings.TrimSpace(repo)
	switch {
	case repo == "":
		return ""
	case strings.Contains(repo, "://"):
		return repo
	default:
		return "https://github.com/" + strings.Trim(repo, "/")
	}
}

func levelRank(level string) int {
	switch level {
	case LevelError:
		return 3
	case LevelWarning:
		return 2
	case LevelNote:
		return 1
	default:
		return 0
	}
}

// ruleSlug lowercases s and replaces everything but letters and digits.
func ruleSlug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

// ruleName renders s in PascalCase, as SARIF rule names conventionally are.
func ruleName(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(ruleSlug(s), "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
