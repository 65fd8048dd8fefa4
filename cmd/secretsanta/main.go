package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mmynk/secretsanta/internal/assigner"
	"github.com/mmynk/secretsanta/internal/composer"
	"github.com/mmynk/secretsanta/internal/config"
	"github.com/mmynk/secretsanta/internal/delivery"
	"github.com/mmynk/secretsanta/internal/metrics"
	"github.com/mmynk/secretsanta/internal/service"
	"github.com/mmynk/secretsanta/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "secretsanta: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type runFlags struct {
	dryRun      bool
	strategy    string
	maxAttempts int
	metricsFile string
	logLevel    string
}

func newRootCmd(stdin *os.File, stdout, stderr io.Writer) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "secretsanta <config>",
		Short: "Draw Secret Santa assignments and email every participant",
		Long: `Reads the sender and the list of santas from a JSON or YAML file,
draws who gifts whom so that nobody draws themselves, and emails every
santa their own assignment over one authenticated SMTP session.

The mail password is asked for interactively and never stored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, &flags)
			if err != nil {
				return err
			}
			path := args[0]
			if err := checkConfigPath(path); err != nil {
				return err
			}

			strategy, err := assigner.ParseStrategy(settings.Strategy)
			if err != nil {
				return err
			}
			engine := assigner.New(
				assigner.WithStrategy(strategy),
				assigner.WithMaxAttempts(settings.MaxAttempts),
			)

			var opener delivery.Opener
			if flags.dryRun {
				opener = delivery.DryRunOpener{W: stdout}
			} else {
				opener = delivery.NewSMTPOpener(
					delivery.PromptSecret(stdin, stderr, "Mail password: "),
					delivery.WithTimeout(settings.SMTPTimeout),
				)
			}

			m := metrics.NewRun()
			svc := service.NewSantaService(engine, delivery.WithLogging(opener),
				service.WithMetrics(m),
				service.WithComposerOptions(composer.WithFromName(settings.FromName)),
			)

			report, runErr := svc.Run(cmd.Context(), path)
			if settings.MetricsFile != "" {
				if err := m.WriteTextfile(settings.MetricsFile); err != nil {
					slog.Warn("Failed to write metrics", "path", settings.MetricsFile, "error", err)
				}
			}
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(stdout, "%d of %d santas notified.\n", report.Sent, report.Participants)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "draw and compose but do not connect to the mail server")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "assignment strategy: rejection or cycle (default from SANTA_STRATEGY)")
	cmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", 0, "rejection sampling ceiling before falling back to cycle")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")

	cmd.AddCommand(newValidateCmd(stdout, &flags))
	return cmd
}

func newValidateCmd(stdout io.Writer, flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a config file without drawing or sending anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadSettings(cmd, flags); err != nil {
				return err
			}
			if err := checkConfigPath(args[0]); err != nil {
				return err
			}

			svc := service.NewSantaService(assigner.New(), delivery.DryRunOpener{W: io.Discard})
			roster, err := svc.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "OK: %d santas, server %s, sender %s\n",
				len(roster.Participants), roster.Sender.HostPort(), roster.Sender.Email)
			for _, w := range roster.Warnings {
				fmt.Fprintf(stdout, "warning: %s\n", w)
			}
			return nil
		},
	}
}

// loadSettings reads the environment, applies flag overrides and sets up
// logging.
func loadSettings(cmd *cobra.Command, flags *runFlags) (config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}

	if flags.logLevel != "" {
		settings.LogLevel = flags.logLevel
	}
	if flags.strategy != "" {
		settings.Strategy = flags.strategy
	}
	if flags.maxAttempts > 0 {
		settings.MaxAttempts = flags.maxAttempts
	}
	if flags.metricsFile != "" {
		settings.MetricsFile = flags.metricsFile
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return config.Settings{}, err
	}
	logging.SetupWithLevel(cmd.ErrOrStderr(), level)
	return settings, nil
}

// checkConfigPath rejects paths that do not name a readable regular file
// before any work starts.
func checkConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("config file %s is not a regular file", path)
	}
	return nil
}
