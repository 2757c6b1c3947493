package report

import (
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// Outputs are the headline numbers a CI step exposes to later steps.
type Outputs struct {
	CriticalCount int    `json:"criticalCount"`
	HighCount     int    `json:"highCount"`
	TotalCount    int    `json:"totalCount"`
	SARIFFile     string `json:"sarifFile,omitempty"`
}

// Policy decides which results fail a build.
type Policy struct {
	FailOnCritical bool `toml:"fail_on_critical"`
	FailOnHigh     bool `toml:"fail_on_high"`
}

// Counts tallies a response. Findings and skeleton-key matches count by
// severity; a MALICIOUS integrity alert counts as critical and a MISMATCH
// as high. Zombie warnings add to the total only.
func Counts(resp *scan.Response) Outputs {
	var o Outputs
	if resp == nil {
		return o
	}
	bySeverity := func(s scan.Severity) {
		o.TotalCount++
		switch s {
		case scan.SeverityCritical:
			o.CriticalCount++
		case scan.SeverityHigh:
			o.HighCount++
		}
	}
	for _, f := range resp.Findings {
		bySeverity(f.Severity)
	}
	for _, m := range resp.SkeletonKeyMatches {
		bySeverity(m.Severity)
	}
	for _, a := range resp.IntegrityAlerts {
		switch a.Status {
		case scan.IntegrityMalicious:
			bySeverity(scan.SeverityCritical)
		case scan.IntegrityMismatch:
			bySeverity(scan.SeverityHigh)
		}
	}
	o.TotalCount += len(resp.ZombieWarnings)
	return o
}

// Check returns a POLICY_VIOLATION error when o breaches p.
func (o Outputs) Check(p Policy) error {
	switch {
	case p.FailOnCritical && o.CriticalCount > 0:
		return lserrors.New(lserrors.ErrCodePolicyViolation, "%d critical issue(s) found", o.CriticalCount)
	case p.FailOnHigh && o.HighCount > 0:
		return lserrors.New(lserrors.ErrCodePolicyViolation, "%d high severity issue(s) found", o.HighCount)
	}
	return nil
}
