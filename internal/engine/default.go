package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/report"
)

// DefaultEngine is the production implementation of Engine.
// It never calls a cloud SDK directly; listing goes through the scanner and
// delivery through the notifier.
type DefaultEngine struct {
	scanner  KindScanner
	notifier Notifier
	clock    models.Clock
	timeout  time.Duration
	newID    func() string
}

// NewDefaultEngine constructs a DefaultEngine. A zero timeout disables the
// overall deadline; a nil clock uses the system clock.
func NewDefaultEngine(scanner KindScanner, notifier Notifier, clock models.Clock, timeout time.Duration) *DefaultEngine {
	if clock == nil {
		clock = models.SystemClock{}
	}
	return &DefaultEngine{
		scanner:  scanner,
		notifier: notifier,
		clock:    clock,
		timeout:  timeout,
		newID:    func() string { return uuid.NewString() },
	}
}

// Run executes one audit invocation: scan all kinds, build the report, then
// notify. Any failure before the report is built aborts the run with a 500
// response after a best-effort failure notice on the summary channel.
func (e *DefaultEngine) Run(ctx context.Context, trigger Trigger) models.Response {
	logger := zerolog.Ctx(ctx).With().Str("invocation_id", e.newID()).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().
		Str("trigger", trigger.Source).
		Int("payload_bytes", len(trigger.Payload)).
		RawJSON("payload", payloadForLog(trigger.Payload)).
		Msg("audit started")

	runCtx, cancel := e.withDeadline(ctx)
	defer cancel()

	rep, err := e.audit(runCtx)
	if err != nil {
		return e.fail(ctx, runCtx, err)
	}

	outcomes := e.notifier.Dispatch(runCtx, rep)
	for _, o := range outcomes {
		logger.Debug().
			Str("channel", o.Channel).
			Bool("attempted", o.Attempted).
			Bool("delivered", o.Delivered).
			Str("error", o.Error).
			Msg("notification outcome")
	}

	logger.Info().
		Str("status", string(rep.Summary.ComplianceStatus)).
		Int("unencrypted", rep.Summary.TotalUnencryptedResources).
		Msg("audit finished")
	return models.SuccessResponse(rep)
}

func (e *DefaultEngine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// audit scans every kind and builds the report.
func (e *DefaultEngine) audit(ctx context.Context) (*models.ComplianceReport, error) {
	findings, err := e.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	return report.Build(e.clock.Now(), findings), nil
}

// scanAll scans kinds concurrently. The first ScanError cancels the other
// scans and is returned; no partial result is kept. A panic in a scan is
// converted to a ScanError for its kind.
func (e *DefaultEngine) scanAll(ctx context.Context) (map[models.ResourceType][]models.Finding, error) {
	kinds := e.scanner.Kinds()
	results := make([][]models.Finding, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &models.ScanError{Kind: kind, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			f, err := e.scanner.Scan(gctx, kind)
			if err != nil {
				return err
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKind := make(map[models.ResourceType][]models.Finding, len(kinds))
	for i, kind := range kinds {
		byKind[kind] = results[i]
	}
	return byKind, nil
}

// fail converts err into an AuditError response and sends the failure
// notice. The notice is sent on a context detached from the expired run
// deadline but bounded by the notifier's own per-channel timeout.
func (e *DefaultEngine) fail(ctx, runCtx context.Context, err error) models.Response {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("audit timed out after %s: %v", e.timeout, err)
	}
	auditErr := &models.AuditError{Message: msg, Timestamp: e.clock.Now().UTC()}

	logger := zerolog.Ctx(ctx)
	var scanErr *models.ScanError
	if errors.As(err, &scanErr) {
		logger.Error().Err(err).Str("kind", string(scanErr.Kind)).Msg("audit failed")
	} else {
		logger.Error().Err(err).Msg("audit failed")
	}

	out := e.notifier.NotifyFailure(context.WithoutCancel(ctx), auditErr)
	logger.Debug().Str("channel", out.Channel).Bool("delivered", out.Delivered).Msg("failure notice outcome")
	return models.FailureResponse(auditErr)
}

// payloadForLog returns the payload when it is valid JSON, otherwise a JSON
// null so the log line stays well-formed.
func payloadForLog(p []byte) []byte {
	if len(p) == 0 || !json.Valid(p) {
		return []byte("null")
	}
	return p
}
