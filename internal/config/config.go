// Package config loads encaudit settings from an optional YAML file and
// ENCAUDIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, for example
// ENCAUDIT_SUMMARY_CHANNEL_TARGET.
const EnvPrefix = "ENCAUDIT"

// Defaults applied before the file and environment are read.
const (
	DefaultAuditTimeout = 5 * time.Minute
	DefaultSendTimeout  = 10 * time.Second
	DefaultLogLevel     = "info"
	DefaultListenAddr   = ":8080"
)

// Config is the top-level application configuration. It must never be
// committed with real secrets.
type Config struct {
	SummaryChannel ChannelConfig `mapstructure:"summary_channel" yaml:"summary_channel" json:"summary_channel"`
	AlertChannel   ChannelConfig `mapstructure:"alert_channel"   yaml:"alert_channel"   json:"alert_channel"`
	AWS            AWSConfig     `mapstructure:"aws"             yaml:"aws"             json:"aws"`

	// AuditTimeout is the overall deadline of one invocation.
	AuditTimeout time.Duration `mapstructure:"audit_timeout" yaml:"audit_timeout" json:"audit_timeout"`

	// SendTimeout bounds each notification channel call.
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout" json:"send_timeout"`

	// LogLevel is a zerolog level name.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// ListenAddr is the address used by "encaudit serve".
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" json:"listen_addr"`
}

// ChannelConfig enables one notification channel. A channel is active only
// when it is enabled and has a target.
type ChannelConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Target is a webhook URL for the summary channel, and an SNS topic ARN
	// or a Pub/Sub topic name for the alert channel.
	Target string `mapstructure:"target" yaml:"target" json:"target"`
}

// Active reports whether the channel should be built.
func (c ChannelConfig) Active() bool {
	return c.Enabled && c.Target != ""
}

// AWSConfig selects the credentials used to list resources.
type AWSConfig struct {
	// Profile is the shared config profile. Empty means the default chain.
	Profile string `mapstructure:"profile" yaml:"profile" json:"profile"`

	// Region is the home region. Empty falls back to the profile's region.
	Region string `mapstructure:"region" yaml:"region" json:"region"`

	// Regions lists the regions whose EBS volumes and RDS instances are
	// scanned. Empty means every region enabled for the account. The
	// environment form is comma separated.
	Regions []string `mapstructure:"regions" yaml:"regions" json:"regions"`
}

// Load reads path (when non-empty) and overlays ENCAUDIT_* environment
// variables on top of the defaults, then validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("summary_channel.enabled", false)
	v.SetDefault("summary_channel.target", "")
	v.SetDefault("alert_channel.enabled", false)
	v.SetDefault("alert_channel.target", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.regions", []string{})
	v.SetDefault("audit_timeout", DefaultAuditTimeout)
	v.SetDefault("send_timeout", DefaultSendTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("listen_addr", DefaultListenAddr)
	return v
}

// Validate checks value ranges. Channel targets are validated when the
// channels are built, since their format depends on the binding.
func (c *Config) Validate() error {
	var errs []error
	if c.AuditTimeout <= 0 {
		errs = append(errs, fmt.Errorf("audit_timeout must be positive, got %s", c.AuditTimeout))
	}
	if c.SendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("send_timeout must be positive, got %s", c.SendTimeout))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.SummaryChannel.Enabled && c.SummaryChannel.Target == "" {
		errs = append(errs, errors.New("summary_channel is enabled but has no target"))
	}
	if c.AlertChannel.Enabled && c.AlertChannel.Target == "" {
		errs = append(errs, errors.New("alert_channel is enabled but has no target"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
