package engine

import (
	"context"
	"encoding/json"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// Trigger is the invocation input. The payload is opaque and only logged.
type Trigger struct {
	// Source names what started the run, e.g. "cli" or "http".
	Source string

	// Payload is the raw trigger body as received.
	Payload json.RawMessage
}

// Engine is the central orchestration interface.
// It scans every configured kind, builds the report, and notifies the
// configured channels. Run never returns a Go error: failures are carried
// in the Response as an AuditError with status 500.
type Engine interface {
	Run(ctx context.Context, trigger Trigger) models.Response
}

// KindScanner enumerates and classifies one resource kind.
// *scan.Scanner satisfies it.
type KindScanner interface {
	Kinds() []models.ResourceType
	Scan(ctx context.Context, kind models.ResourceType) ([]models.Finding, error)
}

// Notifier delivers reports and failure notices. *notify.Dispatcher
// satisfies it.
type Notifier interface {
	Dispatch(ctx context.Context, report *models.ComplianceReport) []models.NotificationOutcome
	NotifyFailure(ctx context.Context, auditErr *models.AuditError) models.NotificationOutcome
}
