package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/lockscan/pkg/buildinfo"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// Defaults for the SARIF tool driver.
const (
	DefaultToolName       = "lockscan"
	DefaultInformationURI = "https://github.com/matzehuels/lockscan"
)

// commentMarker lets a CI step find and update its own PR comment.
const commentMarker = "<!-- lockscan-report -->"

// maxSummaryItems bounds the list in a check summary.
const maxSummaryItems = 10

// Formatter renders scan responses for code review surfaces.
type Formatter struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	// Lockfiles are the artifact URIs SARIF results point at.
	Lockfiles []string
}

// NewFormatter returns a Formatter whose SARIF results point at lockfiles.
func NewFormatter(lockfiles ...string) *Formatter {
	return &Formatter{
		ToolName:       DefaultToolName,
		ToolVersion:    buildinfo.Version,
		InformationURI: DefaultInformationURI,
		Lockfiles:      lockfiles,
	}
}

// PRComment renders resp as a markdown pull request comment.
func (f *Formatter) PRComment(resp *scan.Response) string {
	var b strings.Builder
	b.WriteString(commentMarker + "\n")
	b.WriteString("## Dependency scan\n\n")

	o := Counts(resp)
	if resp == nil || o.TotalCount == 0 {
		b.WriteString("No issues found.\n")
		writeMeta(&b, resp)
		return b.String()
	}

	fmt.Fprintf(&b, "**%d issue(s)**: %d critical, %d high.", o.TotalCount, o.CriticalCount, o.HighCount)
	if r := resp.CompositionalRisk.RiskLevel; r != "" && r != scan.RiskNone {
		fmt.Fprintf(&b, " Compositional risk: **%s**.", r)
	}
	b.WriteString("\n\n")

	if len(resp.Findings) > 0 {
		b.WriteString("### Vulnerability chains\n\n")
		b.WriteString("| Severity | ID | Type | Source | Sink | CVSS |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, fd := range sortedFindings(resp.Findings) {
			fmt.Fprintf(&b, "| %s | %s | %s | `%s` | `%s` | %.1f |\n",
				fd.Severity, cell(fd.ID), cell(fd.Type), cell(fd.SourcePackage), cell(fd.SinkPackage), fd.CVSS)
		}
		b.WriteString("\n")
		for _, fd := range sortedFindings(resp.Findings) {
			if fd.Description == "" && fd.ShimURL == "" {
				continue
			}
			fmt.Fprintf(&b, "<details><summary>%s</summary>\n\n", cell(fd.ID))
			if fd.Description != "" {
				b.WriteString(fd.Description + "\n\n")
			}
			if fd.ShimURL != "" {
				fmt.Fprintf(&b, "Mitigation shim: %s\n\n", fd.ShimURL)
			}
			b.WriteString("</details>\n\n")
		}
	}

	if len(resp.SkeletonKeyMatches) > 0 {
		b.WriteString("### Skeleton keys\n\n")
		b.WriteString("| Severity | Key | Property | Impact | Packages |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, m := range resp.SkeletonKeyMatches {
			fmt.Fprintf(&b, "| %s | %s | `%s` | %s | %s |\n",
				m.Severity, cell(m.SkeletonKeyID), cell(m.Prop), cell(m.ImpactType), cell(strings.Join(m.MatchedPackages, ", ")))
		}
		b.WriteString("\n")
	}

	if attacks := resp.CompositionalRisk.EnabledAttacks; len(attacks) > 0 {
		b.WriteString("### Enabled attacks\n\n")
		for _, a := range attacks {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	if alerts := actionableAlerts(resp.IntegrityAlerts); len(alerts) > 0 {
		b.WriteString("### Integrity alerts\n\n")
		b.WriteString("| Package | Version | Status |\n")
		b.WriteString("|---|---|---|\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", cell(a.PackageName), cell(a.Version), a.Status)
		}
		b.WriteString("\n")
	}

	if len(resp.ZombieWarnings) > 0 {
		b.WriteString("### Zombie packages\n\n")
		b.WriteString("| Package | Score | Maintainers | Days since publish | Ownership changed |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, z := range resp.ZombieWarnings {
			fmt.Fprintf(&b, "| `%s` | %.2f | %d | %d | %t |\n",
				cell(z.PackageName), z.ZombieScore, z.Factors.MaintainerCount, z.Factors.DaysSincePublish, z.Factors.OwnershipChanged)
		}
		b.WriteString("\n")
	}

	writeMeta(&b, resp)
	return b.String()
}

// CheckSummary renders a short markdown summary for a CI check run.
func (f *Formatter) CheckSummary(resp *scan.Response) string {
	o := Counts(resp)
	var b strings.Builder
	if o.TotalCount == 0 {
		b.WriteString("No issues found.\n")
		writeMeta(&b, resp)
		return b.String()
	}
	fmt.Fprintf(&b, "%d critical, %d high, %d total.\n\n", o.CriticalCount, o.HighCount, o.TotalCount)

	findings := sortedFindings(resp.Findings)
	for i, fd := range findings {
		if i == maxSummaryItems {
			fmt.Fprintf(&b, "- and %d more\n", len(findings)-maxSummaryItems)
			break
		}
		fmt.Fprintf(&b, "- **%s** %s: `%s` → `%s`\n", fd.Severity, fd.ID, fd.SourcePackage, fd.SinkPackage)
	}
	for _, a := range actionableAlerts(resp.IntegrityAlerts) {
		fmt.Fprintf(&b, "- **%s** integrity: `%s@%s`\n", a.Status, a.PackageName, a.Version)
	}
	writeMeta(&b, resp)
	return b.String()
}

func writeMeta(b *strings.Builder, resp *scan.Response) {
	if resp == nil || resp.Meta.PackagesScanned == 0 {
		return
	}
	fmt.Fprintf(b, "\n<sub>Scanned %d packages in %dms", resp.Meta.PackagesScanned, resp.Meta.DurationMS)
	if resp.Meta.Tier != "" {
		fmt.Fprintf(b, " (%s tier)", resp.Meta.Tier)
	}
	b.WriteString(".</sub>\n")
}

// sortedFindings orders by severity, then CVSS, both descending.
func sortedFindings(in []scan.Finding) []scan.Finding {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b scan.Finding) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.CVSS, a.CVSS)
	})
	return out
}

func actionableAlerts(in []scan.IntegrityAlert) []scan.IntegrityAlert {
	var out []scan.IntegrityAlert
	for _, a := range in {
		if a.Status == scan.IntegrityMalicious || a.Status == scan.IntegrityMismatch {
			out = append(out, a)
		}
	}
	return out
}

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
