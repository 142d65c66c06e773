package models

// ResourceRecord is the provider-native view of one storage resource, reduced
// to the fields the classifier needs. Records are produced by a provider page
// and consumed once by the scanner.
type ResourceRecord struct {
	Kind   ResourceType `json:"kind"`
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Region string       `json:"region,omitempty"`

	// Encrypted is the direct encryption flag reported by the listing call.
	// Nil means the listing did not carry the attribute; classifiers treat a
	// missing flag the same as false.
	Encrypted *bool `json:"encrypted,omitempty"`

	// NeedsLookup is true for kinds whose encryption state is only known
	// after a secondary per-resource call (S3 default encryption).
	NeedsLookup bool `json:"needs_lookup"`

	// Attributes carries kind-specific extras (size, state, engine, tags)
	// copied onto the finding when the record is non-compliant.
	Attributes map[string]any `json:"attributes,omitempty"`
}

// EncryptionState is the outcome of a secondary encryption lookup.
type EncryptionState int

const (
	// EncryptionNotLooked means no secondary lookup applies to the record.
	EncryptionNotLooked EncryptionState = iota
	// EncryptionConfigured means at least one non-empty encryption rule exists.
	EncryptionConfigured
	// EncryptionNotConfigured means the service reported no configuration.
	// It is the compliance signal itself, not a failure.
	EncryptionNotConfigured
	// EncryptionLookupFailed means the lookup itself failed (access denied,
	// throttling, unknown bucket). Cause holds the underlying error.
	EncryptionLookupFailed
)

func (s EncryptionState) String() string {
	switch s {
	case EncryptionNotLooked:
		return "not_looked"
	case EncryptionConfigured:
		return "configured"
	case EncryptionNotConfigured:
		return "not_configured"
	case EncryptionLookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// EncryptionStatus is the tri-state result of an encryption lookup.
type EncryptionStatus struct {
	State EncryptionState
	Cause error
}

// NotLooked is the status used for kinds classified on the listing alone.
func NotLooked() EncryptionStatus { return EncryptionStatus{State: EncryptionNotLooked} }

// Configured reports a successful lookup that found an encryption rule.
func Configured() EncryptionStatus { return EncryptionStatus{State: EncryptionConfigured} }

// NotConfigured reports a lookup that found no encryption configuration.
func NotConfigured() EncryptionStatus { return EncryptionStatus{State: EncryptionNotConfigured} }

// LookupFailed reports a lookup that failed with cause.
func LookupFailed(cause error) EncryptionStatus {
	return EncryptionStatus{State: EncryptionLookupFailed, Cause: cause}
}
