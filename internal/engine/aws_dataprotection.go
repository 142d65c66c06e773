package engine

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/encaudit/internal/config"
	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/notify"
	"github.com/pankaj-dahiya-devops/encaudit/internal/providers/aws/common"
	awsstorage "github.com/pankaj-dahiya-devops/encaudit/internal/providers/aws/storage"
	"github.com/pankaj-dahiya-devops/encaudit/internal/rulepacks/dataprotection"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// NewAWSDataProtectionEngine wires the AWS storage sources, the
// data-protection rule pack and the configured notification channels into a
// DefaultEngine. The caller must Close the returned dispatcher.
func NewAWSDataProtectionEngine(
	ctx context.Context,
	cfg *config.Config,
	provider common.AWSClientProvider,
) (*DefaultEngine, *notify.Dispatcher, error) {
	profile, err := provider.LoadProfile(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile %q: %w", cfg.AWS.Profile, err)
	}
	zerolog.Ctx(ctx).Info().
		Str("profile", profile.ProfileName).
		Str("account_id", profile.AccountID).
		Str("region", profile.Region).
		Msg("AWS profile loaded")

	regions, err := resolveRegions(ctx, provider, profile, cfg.AWS.Regions)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve regions for profile %q: %w", profile.ProfileName, err)
	}
	regional := make([]aws.Config, 0, len(regions))
	for _, r := range regions {
		regional = append(regional, provider.ConfigForRegion(profile, r))
	}

	scanner := scan.NewScanner(dataprotection.NewRegistry(), models.SystemClock{})
	for _, src := range awsstorage.NewSources(profile.Config, regional) {
		scanner.AddSource(src)
	}

	dispatcher, err := NewDispatcher(ctx, cfg, profile.Config)
	if err != nil {
		return nil, nil, err
	}
	return NewDefaultEngine(scanner, dispatcher, models.SystemClock{}, cfg.AuditTimeout), dispatcher, nil
}

// resolveRegions returns the explicitly configured regions, or every region
// enabled for the account when none are configured.
func resolveRegions(ctx context.Context, provider common.AWSClientProvider, profile *common.ProfileConfig, configured []string) ([]string, error) {
	if len(configured) > 0 {
		return configured, nil
	}
	regions, err := provider.GetActiveRegions(ctx, profile)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return []string{profile.Region}, nil
	}
	zerolog.Ctx(ctx).Info().Strs("regions", regions).Msg("discovered active regions")
	return regions, nil
}

// NewDispatcher builds the channels enabled in cfg. A disabled channel is
// left nil and skipped at dispatch time.
func NewDispatcher(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (*notify.Dispatcher, error) {
	logger := zerolog.Ctx(ctx)

	var summary, alert notify.Channel
	if cfg.SummaryChannel.Active() {
		ch, err := notify.NewSummaryChannel(cfg.SummaryChannel.Target)
		if err != nil {
			return nil, fmt.Errorf("summary channel: %w", err)
		}
		summary = ch
	} else {
		logger.Info().Msg("summary channel not configured")
	}

	if cfg.AlertChannel.Active() {
		ch, err := notify.NewAlertChannel(ctx, cfg.AlertChannel.Target, awsCfg)
		if err != nil {
			return nil, fmt.Errorf("alert channel: %w", err)
		}
		alert = ch
	} else {
		logger.Info().Msg("alert channel not configured")
	}

	return notify.NewDispatcher(summary, alert, cfg.SendTimeout), nil
}
