package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
)

// DefaultSendTimeout bounds a single channel delivery.
const DefaultSendTimeout = 10 * time.Second

const (
	summaryChannelName = "summary"
	alertChannelName   = "alert"
)

// Dispatcher sends a report to the summary and alert channels. Either channel
// may be nil, meaning it is not configured; a nil channel is skipped and
// logged, never treated as an error.
type Dispatcher struct {
	summary Channel
	alert   Channel
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher for the given channels. timeout <= 0
// selects DefaultSendTimeout.
func NewDispatcher(summary, alert Channel, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{summary: summary, alert: alert, timeout: timeout}
}

// Dispatch notifies both channels concurrently and waits for both. The
// summary channel is always attempted when configured; the alert channel
// only when the report has at least one finding. The returned outcomes are
// ordered summary, alert. Dispatch never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, report *models.ComplianceReport) []models.NotificationOutcome {
	outcomes := make([]models.NotificationOutcome, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0] = d.deliver(ctx, summaryChannelName, d.summary, SummaryMessage(report))
	}()
	go func() {
		defer wg.Done()
		if report.Summary.TotalUnencryptedResources == 0 {
			zerolog.Ctx(ctx).Info().Str("channel", alertChannelName).Msg("compliant run, alert not sent")
			outcomes[1] = models.NotificationOutcome{Channel: alertChannelName}
			return
		}
		outcomes[1] = d.deliver(ctx, alertChannelName, d.alert, AlertMessage(report))
	}()
	wg.Wait()
	return outcomes
}

// NotifyFailure sends a best-effort failure notice on the summary channel.
func (d *Dispatcher) NotifyFailure(ctx context.Context, auditErr *models.AuditError) models.NotificationOutcome {
	return d.deliver(ctx, summaryChannelName, d.summary, FailureMessage(auditErr))
}

// Close releases channels that hold connections (Pub/Sub clients).
func (d *Dispatcher) Close() error {
	var first error
	for _, ch := range []Channel{d.summary, d.alert} {
		if c, ok := ch.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// deliver sends msg on ch under its own timeout and converts any failure,
// including a panic inside the channel, into a recorded outcome.
func (d *Dispatcher) deliver(ctx context.Context, role string, ch Channel, msg Message) (out models.NotificationOutcome) {
	logger := zerolog.Ctx(ctx).With().Str("channel", role).Logger()
	out.Channel = role

	if ch == nil {
		logger.Info().Msg("channel not configured, skipping")
		return out
	}
	out.Channel = role + ":" + ch.Name()
	out.Attempted = true

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err := &models.ChannelError{Channel: ch.Name(), Err: fmt.Errorf("panic: %v", r)}
			logger.Error().Err(err).Msg("notification failed")
			out.Delivered = false
			out.Error = err.Error()
		}
	}()

	if err := ch.Send(sendCtx, msg); err != nil {
		cerr := &models.ChannelError{Channel: ch.Name(), Err: err}
		logger.Error().Err(cerr).Msg("notification failed")
		out.Error = cerr.Error()
		return out
	}
	out.Delivered = true
	logger.Info().Msg("notification delivered")
	return out
}
