// Package version holds the build-time version variables for the encaudit
// binary. Release builds set them with -ldflags; local builds keep the
// zero values.
package version

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the text printed by "encaudit version": build metadata
// followed by the resource kinds this build audits, in scan order.
func Info(kinds []models.ResourceType) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	audits := strings.Join(names, ", ")
	if audits == "" {
		audits = "none"
	}
	return fmt.Sprintf("encaudit version %s\ncommit: %s\nbuilt: %s\naudits: %s\n",
		Version, Commit, Date, audits)
}
