// Package dataprotection provides the encryption-at-rest rule pack.
// It groups the per-kind classifiers for EBS volumes, S3 buckets and RDS
// instances into a single registration call.
package dataprotection

import "github.com/pankaj-dahiya-devops/encaudit/internal/rules"

// New returns the complete set of encryption rules in scan order: the two
// storage kinds first (EBS, S3), then RDS.
func New() []rules.Rule {
	return []rules.Rule{
		rules.EBSUnencryptedRule{},             // HIGH
		rules.S3DefaultEncryptionMissingRule{}, // HIGH
		rules.RDSUnencryptedRule{},             // CRITICAL
	}
}

// NewRegistry returns a registry with every rule from New registered.
func NewRegistry() *rules.DefaultRuleRegistry {
	reg := rules.NewDefaultRuleRegistry()
	for _, r := range New() {
		reg.Register(r)
	}
	return reg
}
