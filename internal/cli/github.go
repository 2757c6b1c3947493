package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/lockscan/pkg/report"
)

// GitHub Actions environment files.
const (
	envGitHubOutput      = "GITHUB_OUTPUT"
	envGitHubStepSummary = "GITHUB_STEP_SUMMARY"
	envGitHubRepository  = "GITHUB_REPOSITORY"
)

// writeGitHubOutputs appends step outputs to the GITHUB_OUTPUT file.
func writeGitHubOutputs(path string, o report.Outputs) error {
	var b strings.Builder
	fmt.Fprintf(&b, "critical-count=%d\n", o.CriticalCount)
	fmt.Fprintf(&b, "high-count=%d\n", o.HighCount)
	fmt.Fprintf(&b, "total-count=%d\n", o.TotalCount)
	if o.SARIFFile != "" {
		fmt.Fprintf(&b, "sarif-file=%s\n", o.SARIFFile)
	}
	return appendFile(path, b.String())
}

// appendStepSummary appends markdown to the GITHUB_STEP_SUMMARY file.
func appendStepSummary(path, markdown string) error {
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendFile(path, markdown)
}

func appendFile(path, s string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
