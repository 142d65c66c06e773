package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// S3DefaultEncryptionMissingRule flags S3 buckets that do not have server-side
// encryption configured as the default. Without default encryption, objects
// uploaded without explicit SSE settings are stored in plaintext.
//
// The bucket listing carries no encryption attribute, so the rule depends on
// the GetBucketEncryption lookup performed by the scanner.
type S3DefaultEncryptionMissingRule struct{}

func (r S3DefaultEncryptionMissingRule) ID() string {
	return "S3_DEFAULT_ENCRYPTION_MISSING"
}
func (r S3DefaultEncryptionMissingRule) Name() string {
	return "S3 Bucket Without Default Encryption"
}
func (r S3DefaultEncryptionMissingRule) Kind() models.ResourceType {
	return models.ResourceS3Bucket
}

// Classify maps the lookup outcome onto a verdict:
//   - EncryptionConfigured: compliant, no finding.
//   - EncryptionNotConfigured: one HIGH finding.
//   - EncryptionLookupFailed: a ProviderError; the bucket is neither
//     compliant nor non-compliant.
//   - EncryptionNotLooked: an error, the scanner skipped a required lookup.
func (r S3DefaultEncryptionMissingRule) Classify(rec models.ResourceRecord, status models.EncryptionStatus, now time.Time) (*models.Finding, error) {
	switch status.State {
	case models.EncryptionConfigured:
		return nil, nil
	case models.EncryptionNotConfigured:
		// handled below
	case models.EncryptionLookupFailed:
		var perr *models.ProviderError
		if errors.As(status.Cause, &perr) {
			return nil, perr
		}
		return nil, &models.ProviderError{
			Kind:       models.ResourceS3Bucket,
			Op:         "GetBucketEncryption",
			ResourceID: rec.ID,
			Err:        status.Cause,
		}
	default:
		return nil, fmt.Errorf("bucket %s: encryption lookup required, got %s", rec.ID, status.State)
	}

	f, err := models.NewFinding(models.Finding{
		RuleID:         r.ID(),
		ResourceID:     rec.ID,
		ResourceType:   models.ResourceS3Bucket,
		Name:           rec.Name,
		Region:         rec.Region,
		Severity:       models.SeverityHigh,
		Explanation:    fmt.Sprintf("S3 bucket %q does not have server-side encryption enabled by default.", rec.Name),
		Recommendation: "Enable S3 default encryption (SSE-S3 or SSE-KMS) so that all new objects are automatically encrypted at rest.",
		DetectedAt:     now,
		Attributes:     rec.Attributes,
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}
