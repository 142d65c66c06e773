package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/encaudit/internal/config"
	"github.com/pankaj-dahiya-devops/encaudit/internal/engine"
	"github.com/pankaj-dahiya-devops/encaudit/internal/providers/aws/common"
)

// DoctorResult is the structured output of encaudit doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable table
// (default).
type DoctorResult struct {
	Config struct {
		Path  string `json:"path,omitempty"`
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Region      string `json:"region,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Channels struct {
		Summary string `json:"summary"`
		Alert   string `json:"alert"`
		OK      bool   `json:"ok"`
		Error   string `json:"error,omitempty"`
	} `json:"channels"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(
				cmd.Context(),
				common.NewDefaultAWSClientProvider(),
				cmd.OutOrStdout(),
				format,
				*configPath,
			)
			if err != nil {
				// Rendering failure; let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy.
func runDoctor(ctx context.Context, awsProvider common.AWSClientProvider, w io.Writer, format, configPath string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, awsProvider, configPath)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, awsProvider common.AWSClientProvider, configPath string) DoctorResult {
	var result DoctorResult
	result.Config.Path = configPath

	// Config: load → validate. Later checks need it, so stop on failure.
	cfg, err := config.Load(configPath)
	if err != nil {
		result.Config.Error = err.Error()
		return result
	}
	result.Config.Valid = true

	// AWS: credentials → STS account ID.
	result.AWS.Profile = cfg.AWS.Profile
	var awsCfg aws.Config
	profileCfg, err := awsProvider.LoadProfile(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		result.AWS.Region = profileCfg.Region
		awsCfg = profileCfg.Config
	}

	// Channels: build each enabled channel, then release it.
	result.Channels.Summary = channelState(cfg.SummaryChannel)
	result.Channels.Alert = channelState(cfg.AlertChannel)
	dispatcher, err := engine.NewDispatcher(ctx, cfg, awsCfg)
	if err != nil {
		result.Channels.Error = err.Error()
	} else {
		result.Channels.OK = true
		_ = dispatcher.Close()
	}

	result.OverallHealthy = result.Config.Valid &&
		result.AWS.Credentials &&
		result.Channels.OK

	return result
}

func channelState(c config.ChannelConfig) string {
	if !c.Active() {
		return "disabled"
	}
	return c.Target
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nConfig:")
	source := result.Config.Path
	if source == "" {
		source = "defaults + environment"
	}
	if !result.Config.Valid {
		doctorPrint(w, "Load", "FAIL", result.Config.Error)
		return
	}
	doctorPrint(w, "Load", "OK", source)

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		doctorPrint(w, "Region", "OK", result.AWS.Region)
	}

	fmt.Fprintln(w, "\nChannels:")
	doctorPrint(w, "Summary", result.Channels.Summary, "")
	doctorPrint(w, "Alert", result.Channels.Alert, "")
	if result.Channels.OK {
		doctorPrint(w, "Targets valid", "OK", "")
	} else {
		doctorPrint(w, "Targets valid", "FAIL", result.Channels.Error)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
