package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/encaudit/internal/config"
	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/notify"
)

// SetupFailure converts an error raised while wiring the engine (profile
// loading, STS, region discovery, channel targets) into the 500 response of
// the invocation. The failure notice goes to the summary channel when one
// can be built from cfg; the summary channel needs no AWS credentials.
func SetupFailure(ctx context.Context, cfg *config.Config, clock models.Clock, err error) models.Response {
	if clock == nil {
		clock = models.SystemClock{}
	}
	auditErr := &models.AuditError{Message: err.Error(), Timestamp: clock.Now().UTC()}

	logger := zerolog.Ctx(ctx)
	logger.Error().Err(err).Msg("audit setup failed")

	var summary notify.Channel
	if cfg.SummaryChannel.Active() {
		ch, chErr := notify.NewSummaryChannel(cfg.SummaryChannel.Target)
		if chErr != nil {
			logger.Warn().Err(chErr).Msg("summary channel unusable, failure notice not sent")
		} else {
			summary = ch
		}
	}

	d := notify.NewDispatcher(summary, nil, cfg.SendTimeout)
	defer d.Close()
	out := d.NotifyFailure(context.WithoutCancel(ctx), auditErr)
	logger.Debug().Str("channel", out.Channel).Bool("delivered", out.Delivered).Msg("failure notice outcome")
	return models.FailureResponse(auditErr)
}
