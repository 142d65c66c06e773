package rules

import (
	"testing"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

func TestDefaultRuleRegistry_OrderAndKinds(t *testing.T) {
	r := NewDefaultRuleRegistry()
	r.Register(RDSUnencryptedRule{})
	r.Register(EBSUnencryptedRule{})
	r.Register(S3DefaultEncryptionMissingRule{})

	kinds := r.Kinds()
	want := []models.ResourceType{models.ResourceRDS, models.ResourceEBSVolume, models.ResourceS3Bucket}
	if len(kinds) != len(want) {
		t.Fatalf("want %d kinds, got %d", len(want), len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d]: got %q; want %q", i, kinds[i], want[i])
		}
	}
	if len(r.All()) != 3 {
		t.Errorf("want 3 rules, got %d", len(r.All()))
	}
}

func TestDefaultRuleRegistry_DuplicatePanics(t *testing.T) {
	r := NewDefaultRuleRegistry()
	r.Register(EBSUnencryptedRule{})
	defer func() {
		if recover() == nil {
			t.Error("want panic on duplicate registration")
		}
	}()
	r.Register(EBSUnencryptedRule{})
}

func TestDefaultRuleRegistry_Classify_Dispatch(t *testing.T) {
	r := NewDefaultRuleRegistry()
	r.Register(EBSUnencryptedRule{})

	f, err := r.Classify(models.ResourceEBSVolume, models.ResourceRecord{ID: "vol-1"}, models.NotLooked(), testNow)
	if err != nil || f == nil {
		t.Fatalf("want finding, got %+v / %v", f, err)
	}
	if f.RuleID != "EBS_UNENCRYPTED" {
		t.Errorf("rule_id: got %q", f.RuleID)
	}
}

func TestDefaultRuleRegistry_Classify_UnknownKind(t *testing.T) {
	r := NewDefaultRuleRegistry()
	if _, err := r.Classify(models.ResourceS3Bucket, models.ResourceRecord{ID: "b"}, models.Configured(), testNow); err == nil {
		t.Error("want error for unregistered kind")
	}
}
