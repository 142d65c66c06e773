package dataprotection

import (
	"testing"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

func TestNewRegistry_CoversAllKinds(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[models.ResourceType]bool)
	for _, k := range reg.Kinds() {
		seen[k] = true
	}
	for _, k := range []models.ResourceType{models.ResourceEBSVolume, models.ResourceS3Bucket, models.ResourceRDS} {
		if !seen[k] {
			t.Errorf("kind %q not registered", k)
		}
	}
}
