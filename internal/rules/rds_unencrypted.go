package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// RDSUnencryptedRule flags RDS instances that do not have storage encryption
// enabled. Unencrypted RDS storage exposes database files, automated backups,
// and read replicas to unauthorised access at the storage layer.
type RDSUnencryptedRule struct{}

func (r RDSUnencryptedRule) ID() string                { return "RDS_UNENCRYPTED" }
func (r RDSUnencryptedRule) Name() string              { return "RDS Instance Without Storage Encryption" }
func (r RDSUnencryptedRule) Kind() models.ResourceType { return models.ResourceRDS }

// Classify returns one CRITICAL finding when StorageEncrypted is false or
// absent. CRITICAL severity reflects the sensitivity of database workloads
// compared to general EBS volumes.
func (r RDSUnencryptedRule) Classify(rec models.ResourceRecord, _ models.EncryptionStatus, now time.Time) (*models.Finding, error) {
	if flagSet(rec.Encrypted) {
		return nil, nil
	}
	f, err := models.NewFinding(models.Finding{
		RuleID:         r.ID(),
		ResourceID:     rec.ID,
		ResourceType:   models.ResourceRDS,
		Name:           rec.Name,
		Region:         rec.Region,
		Severity:       models.SeverityCritical,
		Explanation:    fmt.Sprintf("RDS instance %s does not have storage encryption enabled.", rec.ID),
		Recommendation: "Enable storage encryption for RDS instances. Encryption must be set at creation time; to encrypt an existing instance, take a snapshot, copy it with encryption enabled, and restore from that snapshot.",
		DetectedAt:     now,
		Attributes:     rec.Attributes,
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}
