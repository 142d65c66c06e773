package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ResourceType identifies the kind of storage resource a finding refers to.
// Each kind has its own listing and classification rules.
type ResourceType string

const (
	ResourceEBSVolume ResourceType = "EBS_VOLUME"
	ResourceS3Bucket  ResourceType = "S3_BUCKET"
	ResourceRDS       ResourceType = "RDS_INSTANCE"
)

// Finding is the normalized record of one resource without encryption at rest.
// A Finding exists only for non-compliant resources. It is a value type and
// must not be modified after NewFinding returns it.
type Finding struct {
	ID             string         `json:"id"`
	RuleID         string         `json:"rule_id"`
	ResourceID     string         `json:"resource_id"`
	ResourceType   ResourceType   `json:"resource_type"`
	Name           string         `json:"name"`
	Region         string         `json:"region,omitempty"`
	Encrypted      bool           `json:"encrypted"`
	Severity       Severity       `json:"severity"`
	Explanation    string         `json:"explanation"`
	Recommendation string         `json:"recommendation"`
	DetectedAt     time.Time      `json:"detected_at"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// NewFinding validates f and returns it with Encrypted forced to false and
// DetectedAt normalised to UTC. Attributes are copied so later changes to the
// caller's map cannot leak into the finding.
func NewFinding(f Finding) (Finding, error) {
	switch {
	case f.ResourceID == "":
		return Finding{}, fmt.Errorf("finding: empty resource ID")
	case f.ResourceType == "":
		return Finding{}, fmt.Errorf("finding %s: empty resource type", f.ResourceID)
	case f.Severity == "":
		return Finding{}, fmt.Errorf("finding %s: empty severity", f.ResourceID)
	case f.DetectedAt.IsZero():
		return Finding{}, fmt.Errorf("finding %s: zero detection time", f.ResourceID)
	}
	if f.Name == "" {
		f.Name = f.ResourceID
	}
	if f.ID == "" {
		f.ID = fmt.Sprintf("%s-%s", f.RuleID, f.ResourceID)
	}
	f.Encrypted = false
	f.DetectedAt = f.DetectedAt.UTC()
	if len(f.Attributes) > 0 {
		attrs := make(map[string]any, len(f.Attributes))
		for k, v := range f.Attributes {
			attrs[k] = v
		}
		f.Attributes = attrs
	} else {
		f.Attributes = nil
	}
	return f, nil
}

// ComplianceStatus is the binary verdict of an audit run.
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "COMPLIANT"
	StatusNonCompliant ComplianceStatus = "NON-COMPLIANT"
)

// ComplianceSummary aggregates finding counts across all scanned kinds.
// TotalUnencryptedResources always equals the sum of UnencryptedByKind.
//
// In JSON the per-kind counts sit flat beside the total, one
// "unencrypted_<kind>" key per kind, for example "unencrypted_ebs_volume".
type ComplianceSummary struct {
	TotalUnencryptedResources int
	UnencryptedByKind         map[ResourceType]int
	ComplianceStatus          ComplianceStatus
}

const (
	summaryTotalKey  = "total_unencrypted_resources"
	summaryStatusKey = "compliance_status"
	summaryKindKey   = "unencrypted_"
)

// SummaryCountKey returns the JSON key carrying kind's count.
func SummaryCountKey(kind ResourceType) string {
	return summaryKindKey + strings.ToLower(string(kind))
}

func (s ComplianceSummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.UnencryptedByKind)+2)
	out[summaryTotalKey] = s.TotalUnencryptedResources
	out[summaryStatusKey] = s.ComplianceStatus
	for kind, n := range s.UnencryptedByKind {
		out[SummaryCountKey(kind)] = n
	}
	return json.Marshal(out)
}

func (s *ComplianceSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ComplianceSummary{UnencryptedByKind: make(map[ResourceType]int)}
	for key, val := range raw {
		var err error
		switch {
		case key == summaryTotalKey:
			err = json.Unmarshal(val, &s.TotalUnencryptedResources)
		case key == summaryStatusKey:
			err = json.Unmarshal(val, &s.ComplianceStatus)
		case strings.HasPrefix(key, summaryKindKey):
			var n int
			err = json.Unmarshal(val, &n)
			s.UnencryptedByKind[ResourceType(strings.ToUpper(strings.TrimPrefix(key, summaryKindKey)))] = n
		}
		if err != nil {
			return fmt.Errorf("summary %s: %w", key, err)
		}
	}
	return nil
}

// ComplianceReport is the sole artifact of an audit run. It is returned to the
// caller and handed to the notification dispatcher; nothing persists it.
type ComplianceReport struct {
	Timestamp      time.Time                  `json:"timestamp"`
	Summary        ComplianceSummary          `json:"summary"`
	FindingsByKind map[ResourceType][]Finding `json:"findings_by_kind"`
	NextSteps      []string                   `json:"next_steps"`
}

// Compliant reports whether the run found no unencrypted resources.
func (r *ComplianceReport) Compliant() bool {
	return r.Summary.ComplianceStatus == StatusCompliant
}

// NotificationOutcome records what happened to one channel during dispatch.
// It is used for logging and diagnostics only.
type NotificationOutcome struct {
	Channel   string `json:"channel"`
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}
