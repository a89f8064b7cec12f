package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/arming"
	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/logger"
	"github.com/andrewdarr/bt-sentinel/internal/repository/armdoc"
)

// Options configures control surface operations on the arm document.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Output receives human-readable status text.
	Output io.Writer
}

// SetArmed records a manual arm or disarm command on the shared document.
// While the schedule is enabled the command becomes an override that lapses
// at the next schedule transition; the daemon picks the change up on its
// next reconciliation cycle.
func SetArmed(ctx context.Context, opts *Options, armed bool) error {
	ctx = logger.WithName(ctx, "sentinel-ctl")

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	doc, err := armdoc.LoadOrDefaults(ctx, repo)
	if err != nil {
		return fmt.Errorf("load arm document: %w", err)
	}

	now := time.Now()
	arming.SetManual(doc, armed, now)

	if err := repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("save arm document: %w", err)
	}

	action := "Disarmed"
	if armed {
		action = "Armed"
	}

	if doc.ManualOverride && doc.OverrideExpires != nil {
		logger.InfoKV(ctx, action,
			"override_expires", doc.OverrideExpires.Format(time.RFC3339))
		fmt.Fprintf(output(opts), "%s until %s\n",
			action, doc.OverrideExpires.Format(time.RFC3339))

		return nil
	}

	logger.Info(ctx, action)
	fmt.Fprintf(output(opts), "%s\n", action)

	return nil
}

// Status resolves and prints the effective arm state. Resolving may clear a
// lapsed override; the cleared document is persisted so the other binaries
// observe the same state.
func Status(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sentinel-ctl")

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	doc, err := armdoc.LoadOrDefaults(ctx, repo)
	if err != nil {
		return fmt.Errorf("load arm document: %w", err)
	}

	decision, mutated := arming.Decide(doc, time.Now())
	if mutated {
		if err := repo.Save(ctx, doc); err != nil {
			logger.WarnKV(ctx, "Failed to persist arm document", "error", err)
		}
	}

	out := output(opts)

	state := "disarmed"
	if decision.Armed {
		state = "armed"
	}

	fmt.Fprintf(out, "State:     %s (%s)\n", state, decision.Source)
	fmt.Fprintf(out, "Schedule:  %s\n", onOff(doc.ScheduleEnabled))

	if doc.ManualOverride {
		expires := "never"
		if doc.OverrideExpires != nil {
			expires = doc.OverrideExpires.Format(time.RFC3339)
		}

		fmt.Fprintf(out, "Override:  active, expires %s\n", expires)
	}

	if doc.NextTransition != nil {
		fmt.Fprintf(out, "Next flip: %s\n", doc.NextTransition.Format(time.RFC3339))
	}

	fmt.Fprintf(out, "Threshold: %s\n", doc.TriggerThreshold())
	fmt.Fprintf(out, "Interval:  %s\n", doc.ScanInterval())

	return nil
}

// openRepository loads settings and opens the arm document repository.
func openRepository(opts *Options) (armdoc.Repository, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return armdoc.NewFileRepository(settings.ArmStateFile), nil
}

func output(opts *Options) io.Writer {
	if opts.Output != nil {
		return opts.Output
	}

	return os.Stdout
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}

	return "disabled"
}
