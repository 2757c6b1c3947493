package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// uiOut receives status lines. Data goes to the command's stdout.
var uiOut io.Writer = os.Stderr

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan    = lipgloss.Color("36")  // Teal - primary actions
	colorGreen   = lipgloss.Color("35")  // Green - success
	colorYellow  = lipgloss.Color("220") // Amber - warnings
	colorOrange  = lipgloss.Color("208") // Orange - high severity
	colorRed     = lipgloss.Color("167") // Soft red - errors
	colorMagenta = lipgloss.Color("197") // Hot pink - critical severity
	colorWhite   = lipgloss.Color("255") // Bright white - values
	colorGray    = lipgloss.Color("245") // Gray - secondary text
	colorDim     = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// severityStyles colors severity labels.
var severityStyles = map[scan.Severity]lipgloss.Style{
	scan.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(colorMagenta),
	scan.SeverityHigh:     lipgloss.NewStyle().Bold(true).Foreground(colorOrange),
	scan.SeverityMedium:   lipgloss.NewStyle().Foreground(colorYellow),
	scan.SeverityLow:      lipgloss.NewStyle().Foreground(colorGray),
	scan.SeverityInfo:     lipgloss.NewStyle().Foreground(colorDim),
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written-file line.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(uiOut, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printParseStats prints lockfile statistics on a single line.
func printParseStats(files, deps, errs, cached int) {
	parts := []string{
		fmt.Sprintf("%d lockfiles", files),
		fmt.Sprintf("%d dependencies", deps),
	}
	if errs > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d errors", errs)))
	}
	status, statusStyle := iconFresh, styleComputed
	if cached == files && files > 0 {
		status, statusStyle = iconCached, styleCached
	} else if cached > 0 {
		status = fmt.Sprintf("%d %s", cached, iconCached)
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(uiOut, line)
}

// printOutputs prints scan counts with severity colors.
func printOutputs(o report.Outputs) {
	if o.TotalCount == 0 {
		printSuccess("No issues found")
		return
	}
	printWarning("%d issue(s) found", o.TotalCount)
	printKeyValue("critical", severityStyles[scan.SeverityCritical].Render(fmt.Sprint(o.CriticalCount)))
	printKeyValue("high", severityStyles[scan.SeverityHigh].Render(fmt.Sprint(o.HighCount)))
}

// printFindings lists findings, most severe first, up to limit.
func printFindings(resp *scan.Response, limit int) {
	if resp == nil {
		return
	}
	for i, f := range resp.Findings {
		if i == limit {
			printDetail("… and %d more", len(resp.Findings)-limit)
			return
		}
		label := severityStyles[f.Severity].Render(fmt.Sprintf("%-8s", f.Severity))
		fmt.Fprintf(uiOut, "  %s %s %s %s %s\n", label, StyleValue.Render(f.SourcePackage), StyleDim.Render(iconArrow), StyleValue.Render(f.SinkPackage), StyleDim.Render(f.ID))
	}
}
