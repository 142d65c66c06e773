package rules

import (
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// Rule is a single deterministic encryption-at-rest classifier for one
// resource kind. Rules must be stateless and safe to call concurrently.
// They must never call the AWS SDK or any external service: everything a
// rule needs arrives in the record and the pre-fetched EncryptionStatus.
type Rule interface {
	// ID returns the unique, stable identifier for this rule (e.g. "EBS_UNENCRYPTED").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Kind returns the resource kind this rule classifies.
	Kind() models.ResourceType

	// Classify returns a Finding when rec is not encrypted at rest and nil
	// when it is. now stamps the finding. A non-nil error means the record
	// could not be classified (a failed lookup) and must abort the scan.
	Classify(rec models.ResourceRecord, status models.EncryptionStatus, now time.Time) (*models.Finding, error)
}

// RuleRegistry maps each resource kind to exactly one classifying rule.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID or kind.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// Kinds returns the registered kinds in registration order.
	Kinds() []models.ResourceType

	// Classify dispatches rec to the rule registered for kind.
	Classify(kind models.ResourceType, rec models.ResourceRecord, status models.EncryptionStatus, now time.Time) (*models.Finding, error)
}
