// Package report aggregates scan findings into a ComplianceReport.
package report

import (
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// nextSteps is the fixed remediation guidance attached to every report.
// It documents general policy and does not depend on the findings.
var nextSteps = []string{
	"Enable EBS encryption by default in every region so new volumes are encrypted at creation.",
	"Re-create unencrypted EBS volumes from encrypted snapshot copies and migrate workloads.",
	"Enable S3 default encryption (SSE-S3 or SSE-KMS) on every bucket.",
	"Restore unencrypted RDS instances from encrypted snapshot copies.",
	"Enforce encryption with organisation-level guardrails (SCPs or AWS Config rules).",
	"Re-run this audit after remediation to confirm compliance.",
}

// NextSteps returns a copy of the fixed remediation guidance.
func NextSteps() []string {
	out := make([]string, len(nextSteps))
	copy(out, nextSteps)
	return out
}

// Build aggregates findingsByKind into a report stamped with now.
// It is pure: identical inputs produce identical reports. Every kind present
// in findingsByKind appears in the summary, even with zero findings. Finding
// slices are copied so the report never aliases the caller's buffers.
func Build(now time.Time, findingsByKind map[models.ResourceType][]models.Finding) *models.ComplianceReport {
	counts := make(map[models.ResourceType]int, len(findingsByKind))
	byKind := make(map[models.ResourceType][]models.Finding, len(findingsByKind))

	total := 0
	for kind, findings := range findingsByKind {
		cp := make([]models.Finding, len(findings))
		copy(cp, findings)
		byKind[kind] = cp
		counts[kind] = len(cp)
		total += len(cp)
	}

	status := models.StatusCompliant
	if total > 0 {
		status = models.StatusNonCompliant
	}

	return &models.ComplianceReport{
		Timestamp: now.UTC(),
		Summary: models.ComplianceSummary{
			TotalUnencryptedResources: total,
			UnencryptedByKind:         counts,
			ComplianceStatus:          status,
		},
		FindingsByKind: byKind,
		NextSteps:      NextSteps(),
	}
}
