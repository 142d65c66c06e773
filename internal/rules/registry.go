package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// DefaultRuleRegistry is a simple, ordered, in-memory registry.
// Register panics on duplicate rule IDs or kinds to catch wiring mistakes at
// startup.
type DefaultRuleRegistry struct {
	rules  []Rule
	index  map[string]struct{}
	byKind map[models.ResourceType]Rule
}

// NewDefaultRuleRegistry returns an empty registry ready for rule registration.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	return &DefaultRuleRegistry{
		index:  make(map[string]struct{}),
		byKind: make(map[models.ResourceType]Rule),
	}
}

// Register adds rule to the registry. Panics if the same ID or kind is
// registered twice.
func (r *DefaultRuleRegistry) Register(rule Rule) {
	if _, exists := r.index[rule.ID()]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", rule.ID()))
	}
	if existing, exists := r.byKind[rule.Kind()]; exists {
		panic(fmt.Sprintf("kind %q already classified by rule %q", rule.Kind(), existing.ID()))
	}
	r.rules = append(r.rules, rule)
	r.index[rule.ID()] = struct{}{}
	r.byKind[rule.Kind()] = rule
}

// All returns all registered rules in registration order.
func (r *DefaultRuleRegistry) All() []Rule {
	return r.rules
}

// Kinds returns the registered kinds in registration order.
func (r *DefaultRuleRegistry) Kinds() []models.ResourceType {
	kinds := make([]models.ResourceType, 0, len(r.rules))
	for _, rule := range r.rules {
		kinds = append(kinds, rule.Kind())
	}
	return kinds
}

// Classify runs the rule registered for kind against rec.
func (r *DefaultRuleRegistry) Classify(
	kind models.ResourceType,
	rec models.ResourceRecord,
	status models.EncryptionStatus,
	now time.Time,
) (*models.Finding, error) {
	rule, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("no rule registered for kind %q", kind)
	}
	return rule.Classify(rec, status, now)
}
