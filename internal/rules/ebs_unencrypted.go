package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// EBSUnencryptedRule flags EBS volumes that do not have encryption enabled.
// Unencrypted volumes expose data at rest to anyone with physical or snapshot
// access, violating data-protection requirements.
type EBSUnencryptedRule struct{}

func (r EBSUnencryptedRule) ID() string                { return "EBS_UNENCRYPTED" }
func (r EBSUnencryptedRule) Name() string              { return "EBS Volume Without Encryption" }
func (r EBSUnencryptedRule) Kind() models.ResourceType { return models.ResourceEBSVolume }

// Classify returns one HIGH finding when the volume's Encrypted flag is false
// or missing from the listing.
func (r EBSUnencryptedRule) Classify(rec models.ResourceRecord, _ models.EncryptionStatus, now time.Time) (*models.Finding, error) {
	if flagSet(rec.Encrypted) {
		return nil, nil
	}
	f, err := models.NewFinding(models.Finding{
		RuleID:         r.ID(),
		ResourceID:     rec.ID,
		ResourceType:   models.ResourceEBSVolume,
		Name:           rec.Name,
		Region:         rec.Region,
		Severity:       models.SeverityHigh,
		Explanation:    fmt.Sprintf("EBS volume %s is not encrypted at rest.", rec.ID),
		Recommendation: "Enable EBS encryption. For new volumes, enable encryption by default in the EC2 console. Existing unencrypted volumes must be re-created from an encrypted snapshot.",
		DetectedAt:     now,
		Attributes:     rec.Attributes,
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// flagSet reports whether a direct encryption flag is present and true.
func flagSet(b *bool) bool {
	return b != nil && *b
}
