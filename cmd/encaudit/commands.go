package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/encaudit/internal/config"
	"github.com/pankaj-dahiya-devops/encaudit/internal/engine"
	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/output"
	"github.com/pankaj-dahiya-devops/encaudit/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/encaudit/internal/rulepacks/dataprotection"
	"github.com/pankaj-dahiya-devops/encaudit/internal/server"
	"github.com/pankaj-dahiya-devops/encaudit/internal/version"
)

// errAuditFailed is returned by "run" when the invocation produced a 500
// response. The response itself has already been rendered.
var errAuditFailed = errors.New("audit failed")

// engineFactory builds the engine for one command. The returned closer
// releases notification clients.
type engineFactory func(ctx context.Context, cfg *config.Config) (engine.Engine, io.Closer, error)

// buildAWSEngine is the production engineFactory.
func buildAWSEngine(ctx context.Context, cfg *config.Config) (engine.Engine, io.Closer, error) {
	eng, dispatcher, err := engine.NewAWSDataProtectionEngine(ctx, cfg, common.NewDefaultAWSClientProvider())
	if err != nil {
		return nil, nil, err
	}
	return eng, dispatcher, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithFactory(buildAWSEngine)
}

func newRootCmdWithFactory(factory engineFactory) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "encaudit",
		Short: "Audit cloud storage for missing encryption at rest",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env file is optional; ENCAUDIT_* variables may come from the shell.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (ENCAUDIT_* env vars override it)")

	root.AddCommand(newRunCmd(&configPath, factory))
	root.AddCommand(newServeCmd(&configPath, factory))
	root.AddCommand(newDoctorCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd(configPath *string, factory engineFactory) *cobra.Command {
	var (
		reportFmt string
		payload   string
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Run one audit and print the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(reportFmt)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			ctx := logger.WithContext(cmd.Context())

			var resp models.Response
			eng, closer, err := factory(ctx, cfg)
			if err != nil {
				resp = engine.SetupFailure(ctx, cfg, nil, err)
			} else {
				defer closeQuietly(ctx, closer)
				resp = eng.Run(ctx, engine.Trigger{Source: "cli", Payload: []byte(payload)})
			}

			out := cmd.OutOrStdout()
			opts := output.TableOptions{Colored: !noColor && isTerminal(out)}
			if err := output.Render(out, resp, format, opts); err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return errAuditFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json, yaml or table")
	cmd.Flags().StringVar(&payload, "payload", "", "Trigger payload passed to the invocation (logged only)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colours in table output")
	return cmd
}

func newServeCmd(configPath *string, factory engineFactory) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve POST /invoke and GET /healthz over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			ctx := logger.WithContext(cmd.Context())

			eng, closer, err := factory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeQuietly(ctx, closer)

			return server.NewWebAPI(logger, server.Config{Addr: addr, Engine: eng}).Start()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info(dataprotection.NewRegistry().Kinds()))
		},
	}
}

// newLogger writes JSON logs to w, or human-readable lines when w is a
// terminal.
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	if isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func closeQuietly(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close notification channels")
	}
}
