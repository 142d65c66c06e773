package rules

import (
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func TestEBSUnencryptedRule_ID(t *testing.T) {
	r := EBSUnencryptedRule{}
	if r.ID() != "EBS_UNENCRYPTED" {
		t.Error("unexpected rule ID")
	}
	if r.Kind() != models.ResourceEBSVolume {
		t.Errorf("kind: got %q; want EBS_VOLUME", r.Kind())
	}
}

func TestEBSUnencryptedRule_EncryptedVolume_NoFinding(t *testing.T) {
	rec := models.ResourceRecord{Kind: models.ResourceEBSVolume, ID: "vol-enc", Encrypted: boolPtr(true)}
	f, err := EBSUnencryptedRule{}.Classify(rec, models.NotLooked(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Errorf("want no finding for encrypted volume, got %+v", f)
	}
}

func TestEBSUnencryptedRule_UnencryptedVolume_HighSeverity(t *testing.T) {
	rec := models.ResourceRecord{
		Kind:      models.ResourceEBSVolume,
		ID:        "vol-bare",
		Name:      "data-disk",
		Region:    "us-east-1",
		Encrypted: boolPtr(false),
		Attributes: map[string]any{
			"size_gb": int32(200),
			"state":   "in-use",
		},
	}
	f, err := EBSUnencryptedRule{}.Classify(rec, models.NotLooked(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("want 1 finding, got nil")
	}
	if f.ResourceID != "vol-bare" {
		t.Errorf("resource_id: got %q; want vol-bare", f.ResourceID)
	}
	if f.Name != "data-disk" {
		t.Errorf("name: got %q; want data-disk", f.Name)
	}
	if f.Severity != models.SeverityHigh {
		t.Errorf("severity: got %q; want HIGH", f.Severity)
	}
	if f.ResourceType != models.ResourceEBSVolume {
		t.Errorf("resource_type: got %q; want EBS_VOLUME", f.ResourceType)
	}
	if f.Region != "us-east-1" {
		t.Errorf("region: got %q; want us-east-1", f.Region)
	}
	if f.Encrypted {
		t.Error("finding must carry encrypted=false")
	}
	if !f.DetectedAt.Equal(testNow) {
		t.Errorf("detected_at: got %v; want injected clock %v", f.DetectedAt, testNow)
	}
	if f.Attributes["state"] != "in-use" {
		t.Errorf("attributes not carried over: %v", f.Attributes)
	}
}

// A listing that omits the Encrypted attribute is treated as unencrypted.
func TestEBSUnencryptedRule_MissingFlag_Finding(t *testing.T) {
	rec := models.ResourceRecord{Kind: models.ResourceEBSVolume, ID: "vol-unknown"}
	f, err := EBSUnencryptedRule{}.Classify(rec, models.NotLooked(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("want finding for volume with absent encryption flag")
	}
	if f.Name != "vol-unknown" {
		t.Errorf("name should default to resource ID, got %q", f.Name)
	}
}

func TestEBSUnencryptedRule_FindingIsolatedFromRecordAttributes(t *testing.T) {
	attrs := map[string]any{"state": "available"}
	rec := models.ResourceRecord{Kind: models.ResourceEBSVolume, ID: "vol-1", Attributes: attrs}
	f, _ := EBSUnencryptedRule{}.Classify(rec, models.NotLooked(), testNow)
	attrs["state"] = "deleted"
	if f.Attributes["state"] != "available" {
		t.Errorf("finding attributes changed after creation: %v", f.Attributes)
	}
}
