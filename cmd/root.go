package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"clipkeeper/pkg/completions"
	"clipkeeper/pkg/config"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/logger"
	"clipkeeper/pkg/progress"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var (
	outputFormat  string
	dryRunFlag    bool
	assumeYesFlag bool
	logLevel      string
	openRetries   int
	retryInterval time.Duration
)

// appConfig is loaded before any command runs.
var appConfig = config.Default()

// NewRootCmd builds the complete command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clipkeeper",
		Short: "Snapshot and restore the complete Windows clipboard",
		Long: `Capture every format on the clipboard (text, HTML, RTF, images, file lists
and application specific formats) into a portable JSON snapshot, and put it
back later exactly as it was. Snapshots can also be kept in a local SQLite
history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			appConfig = cfg

			// Explicit flags take precedence over env vars and the config file
			level := cfg.Log.Level
			if cmd.Flags().Changed("log-level") {
				level = logLevel
			}
			logger.SetLevel(level)

			if !cmd.Flags().Changed("retries") {
				openRetries = cfg.Clipboard.OpenRetries
			}
			if !cmd.Flags().Changed("retry-interval") {
				retryInterval = cfg.Clipboard.RetryInterval
			}
			if openRetries < 0 {
				return errors.ValidationError(fmt.Sprintf("--retries must not be negative, got %d", openRetries))
			}
			if retryInterval <= 0 {
				return errors.ValidationError(fmt.Sprintf("--retry-interval must be positive, got %s", retryInterval))
			}

			if _, err := parseOutputFormat(outputFormat); err != nil {
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().IntVar(&openRetries, "retries", 0, "Extra attempts when another application holds the clipboard")
	rootCmd.PersistentFlags().DurationVar(&retryInterval, "retry-interval", config.DefaultRetryInterval, "Wait between clipboard open attempts")

	RegisterCommands(rootCmd)
	completions.RegisterCompletions(rootCmd)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return NewCommand("version", "Show version information", "").
		WithRun(func(cmd *cobra.Command, args []string) error {
			ver := Version
			if ver == "" {
				ver = "dev"
			}
			bt := BuildTime
			if bt == "" {
				bt = unknownValue
			}
			gc := GitCommit
			if gc == "" {
				gc = unknownValue
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "clipkeeper version %s\n", ver)
			fmt.Fprintf(out, "Built: %s\n", bt)
			fmt.Fprintf(out, "Git commit: %s\n", gc)
			return nil
		}).
		Build()
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if progress.IsTerminal(os.Stderr) {
		logger.SetConsole(os.Stderr)
	}

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		exitCode := reportError(err)
		stop()
		os.Exit(int(exitCode))
	}
}

// reportError prints err for a human, or only logs it when stdout carries
// --format json|yaml output.
func reportError(err error) errors.ExitCode {
	if format, _ := parseOutputFormat(outputFormat); format != FormatTable {
		return errors.HandleQuietReturn(err)
	}
	return errors.HandleReturn(err)
}
