package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/service/monitor"
	"github.com/andrewdarr/bt-sentinel/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// debug logs detections without energizing the alarm output.
	debug bool

	// rootCmd represents the base command for the monitoring worker.
	rootCmd = &cobra.Command{
		Use:   "sentinel-monitor",
		Short: "Scan for wireless devices and raise the alarm on intrusion.",
		Long: `Detection worker that scans for nearby wireless devices on a fixed cadence.

A device that stays visible past the trigger threshold confirms an intrusion:
the alarm output is energized and every configured alert channel is notified.
Devices belonging to the installation itself are exempt and never trigger.

The reconciliation daemon starts and stops this worker to match the arm state;
it is not meant to be supervised by hand outside of debugging.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return monitor.Run(ctx, &monitor.Options{
				ConfigPath: configPath,
				Debug:      debug,
			})
		},
	}
)

// Execute runs the sentinel-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	// Hidden debug flag to keep the alarm output idle while testing detection.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "detect without energizing the alarm output")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
