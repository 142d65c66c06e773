package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls how RenderTable colours its output.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool
}

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	default:
		return ""
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityColor(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-char ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// sortedFindings flattens the report's findings ordered by kind, then
// resource ID, so table output is stable across runs.
func sortedFindings(report *models.ComplianceReport) []models.Finding {
	var all []models.Finding
	for _, fs := range report.FindingsByKind {
		all = append(all, fs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ResourceType != all[j].ResourceType {
			return all[i].ResourceType < all[j].ResourceType
		}
		return all[i].ResourceID < all[j].ResourceID
	})
	return all
}

// RenderTable writes the report summary followed by a findings table to w.
//
// Column order:
//
//	RESOURCE ID  REGION  SEVERITY  TYPE  MESSAGE
func RenderTable(w io.Writer, report *models.ComplianceReport, opts TableOptions) {
	fmt.Fprintf(w, "Status: %s\n", report.Summary.ComplianceStatus)
	fmt.Fprintf(w, "Unencrypted resources: %d\n", report.Summary.TotalUnencryptedResources)

	kinds := make([]string, 0, len(report.Summary.UnencryptedByKind))
	for k := range report.Summary.UnencryptedByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %d\n", k, report.Summary.UnencryptedByKind[models.ResourceType(k)])
	}
	fmt.Fprintln(w)

	findings := sortedFindings(report)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wResource = 30
		wRegion   = 15
		wSeverity = 10
		wType     = 14
		wMessage  = 55
	)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
		wResource, "RESOURCE ID",
		wRegion, "REGION",
		wSeverity, "SEVERITY",
		wType, "TYPE",
		wMessage, "MESSAGE")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range findings {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(f.ResourceID, wResource)))
		rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(f.Region, wRegion)))
		rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wType, truncateField(string(f.ResourceType), wType)))
		rb.WriteString(fmt.Sprintf("  %-*s", wMessage, ShortenMessage(f.Explanation, wMessage)))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	for i, step := range report.NextSteps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}
