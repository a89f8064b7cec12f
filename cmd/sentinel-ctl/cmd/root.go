package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/service/ctl"
	"github.com/andrewdarr/bt-sentinel/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for the control surface.
	rootCmd = &cobra.Command{
		Use:   "sentinel-ctl",
		Short: "Arm, disarm and inspect the intrusion sentinel.",
		Long: `Control surface for the intrusion sentinel.

Commands write the shared arm document; the reconciliation daemon picks
changes up on its next cycle. While the weekly schedule is enabled, a manual
arm or disarm becomes a temporary override that lapses at the next scheduled
transition.`,
	}

	armCmd = &cobra.Command{
		Use:   "arm",
		Short: "Arm the sentinel.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ctl.SetArmed(signalContext(), ctlOptions(), true)
		},
	}

	disarmCmd = &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the sentinel.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ctl.SetArmed(signalContext(), ctlOptions(), false)
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the effective arm state.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ctl.Status(signalContext(), ctlOptions())
		},
	}
)

// Execute runs the sentinel-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func ctlOptions() *ctl.Options {
	return &ctl.Options{
		ConfigPath: configPath,
		Output:     os.Stdout,
	}
}

func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	return ctx
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	rootCmd.AddCommand(armCmd, disarmCmd, statusCmd)
}
