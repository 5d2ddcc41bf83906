package main

import (
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/cmd/shipkey/commands"
	"github.com/shipkey/shipkey/internal/config"
	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()
	err := run()
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
		timeout        time.Duration
		metricsFile    string
	)

	cfg := &config.Config{}
	app := commands.NewApp()

	rootCmd := &cobra.Command{
		Use:   "shipkey",
		Short: "Scan, store and ship project secrets",
		Long: `shipkey finds the secrets a project uses, stores them in 1Password or
Bitwarden, pulls them back into local env files and publishes them to
GitHub Actions and Cloudflare Workers.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(debug, noColor)
			if err := config.LoadOverrides(config.OverridesFile()); err != nil {
				logger.Warn("Ignoring runtime overrides: %v", err)
			}

			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
			cfg.Timeout = timeout
			cfg.MetricsFile = metricsFile
			cfg.Runtime = config.RuntimeFromEnv(os.LookupEnv)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.FileName, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort store and platform calls after this long (0 disables)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		commands.NewScanCommand(cfg, app),
		commands.NewPushCommand(cfg, app),
		commands.NewPullCommand(cfg, app),
		commands.NewListCommand(cfg, app),
		commands.NewSyncCommand(cfg, app),
		commands.NewStatusCommand(cfg, app),
		commands.NewSessionCommand(cfg, commands.KeyringSessions()),
		commands.NewCompletionCommand(),
	)

	err := rootCmd.Execute()
	// Metrics are written for failed runs too.
	if cfg.MetricsFile != "" {
		if werr := app.Metrics.WriteTextfile(cfg.MetricsFile); werr != nil && err == nil {
			err = fmt.Errorf("failed to write metrics: %w", werr)
		}
	}
	return err
}
