package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// MaxListedPerKind caps the resource identifiers listed per kind in the
// summary digest.
const MaxListedPerKind = 25

var kindLabels = map[models.ResourceType]string{
	models.ResourceEBSVolume: "EBS volumes",
	models.ResourceS3Bucket:  "S3 buckets",
	models.ResourceRDS:       "RDS instances",
}

// KindLabel returns the plural display label for kind.
func KindLabel(kind models.ResourceType) string {
	if l, ok := kindLabels[kind]; ok {
		return l
	}
	return string(kind)
}

// sortedKinds returns the summary kinds in a stable order.
func sortedKinds(counts map[models.ResourceType]int) []models.ResourceType {
	kinds := make([]models.ResourceType, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// writeCounts writes the total and per-kind count lines shared by the
// summary digest and the alert.
func writeCounts(b *strings.Builder, report *models.ComplianceReport) {
	s := report.Summary
	fmt.Fprintf(b, "Total unencrypted resources: %d\n", s.TotalUnencryptedResources)
	for _, kind := range sortedKinds(s.UnencryptedByKind) {
		fmt.Fprintf(b, "  %s: %d\n", KindLabel(kind), s.UnencryptedByKind[kind])
	}
}

// SummaryMessage formats the summary-channel message. A compliant report
// produces a short success line; otherwise a digest lists up to
// MaxListedPerKind identifiers per kind with a truncation line beyond that.
func SummaryMessage(report *models.ComplianceReport) Message {
	stamp := report.Timestamp.Format("2006-01-02 15:04:05 UTC")
	if report.Compliant() {
		return Message{
			Subject: "Encryption audit: COMPLIANT",
			Text:    fmt.Sprintf("✅ Encryption audit %s: all scanned storage resources are encrypted at rest.", stamp),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Encryption audit %s: %s\n", stamp, report.Summary.ComplianceStatus)
	writeCounts(&b, report)

	for _, kind := range sortedKinds(report.Summary.UnencryptedByKind) {
		findings := report.FindingsByKind[kind]
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nUnencrypted %s (%d):\n", KindLabel(kind), len(findings))
		for i, f := range findings {
			if i == MaxListedPerKind {
				fmt.Fprintf(&b, "  ... and %d more\n", len(findings)-MaxListedPerKind)
				break
			}
			fmt.Fprintf(&b, "  - %s\n", f.ResourceID)
		}
	}
	return Message{
		Subject: "Encryption audit: NON-COMPLIANT",
		Text:    strings.TrimRight(b.String(), "\n"),
	}
}

// AlertMessage formats the plain-text alert sent on non-compliant runs.
func AlertMessage(report *models.ComplianceReport) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "ALERT: %d storage resources without encryption at rest (%s).\n",
		report.Summary.TotalUnencryptedResources,
		report.Timestamp.Format("2006-01-02 15:04:05 UTC"),
	)
	writeCounts(&b, report)
	b.WriteString("Review the compliance report and remediate the listed resources.")
	return Message{
		Subject: "Unencrypted storage resources detected",
		Text:    b.String(),
	}
}

// FailureMessage formats the best-effort notice sent when an audit fails.
func FailureMessage(auditErr *models.AuditError) Message {
	return Message{
		Subject: "Encryption audit failed",
		Text: fmt.Sprintf("❌ Encryption audit failed at %s: %s",
			auditErr.Timestamp.Format("2006-01-02 15:04:05 UTC"), auditErr.Message),
	}
}
