package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/service/daemon"
	"github.com/andrewdarr/bt-sentinel/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// pollInterval overrides the configured reconciliation cadence.
	pollInterval time.Duration

	// rootCmd represents the base command for the reconciliation daemon.
	rootCmd = &cobra.Command{
		Use:   "sentinel-daemon",
		Short: "Keep the monitoring worker converged to the arm state.",
		Long: `Reconciliation daemon for the detection worker.

Every cycle it resolves the effective arm state from the shared document,
combining the weekly schedule, any manual override and the last manual
command, then starts or stops the monitoring worker to match. A worker that
fails to start or stop is retried on the next cycle; the daemon itself keeps
running through every failure.

Run one instance per installation, typically under systemd.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:   configPath,
				PollInterval: pollInterval,
			})
		},
	}
)

// Execute runs the sentinel-daemon CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&pollInterval, "poll-interval", "p", 0, "override the reconciliation interval")
}
