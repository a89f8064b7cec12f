package daemon

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/andrewdarr/bt-sentinel/internal/arming"
	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/logger"
	"github.com/andrewdarr/bt-sentinel/internal/metrics"
	"github.com/andrewdarr/bt-sentinel/internal/repository/armdoc"
	"github.com/andrewdarr/bt-sentinel/internal/supervisor"
)

// Options controls the reconciliation daemon behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// PollInterval overrides the configured delay between cycles.
	PollInterval time.Duration
}

// errorBackoffFactor stretches the poll interval after a failed cycle so a
// persistent fault does not produce a tight retry loop.
const errorBackoffFactor = 3

// reconciler drives the worker toward the effective arm state once per cycle.
type reconciler struct {
	repo       armdoc.Repository
	supervisor supervisor.Supervisor
	metrics    *metrics.Recorder

	// grace is the wait before re-verifying a requested start or stop.
	grace time.Duration
	// wait pauses between actions; injected for tests, context-aware.
	wait func(ctx context.Context, d time.Duration)
}

// Run executes the reconciliation daemon until the context is canceled.
// Every cycle it recomputes the effective arm state from the shared document
// and converges the monitoring worker to it. Cycle failures are logged and
// retried with a longer pause; the daemon itself never exits on them.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sentinel-daemon")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	pollInterval := settings.PollInterval
	if opts.PollInterval > 0 {
		pollInterval = opts.PollInterval
	}

	sup, err := supervisor.NewProcessSupervisor(
		settings.WorkerSignature, settings.WorkerCommand, settings.WorkerDirectory)
	if err != nil {
		return fmt.Errorf("process supervisor: %w", err)
	}

	metricsRecorder := metrics.NewRecorder(prom.NewRegistry())
	if settings.MetricsAddress != "" {
		go metricsRecorder.Serve(ctx, settings.MetricsAddress)
	}

	r := &reconciler{
		repo:       armdoc.NewFileRepository(settings.ArmStateFile),
		supervisor: sup,
		metrics:    metricsRecorder,
		grace:      settings.GraceDelay,
		wait:       sleepContext,
	}

	logger.InfoKV(ctx, "Reconciliation started",
		"arm_state_file", settings.ArmStateFile,
		"worker_signature", settings.WorkerSignature,
		"poll_interval", pollInterval.String(),
	)

	for {
		pause := pollInterval

		if err := r.cycle(ctx, time.Now()); err != nil {
			logger.ErrorKV(ctx, "Reconcile cycle failed", "error", err)

			pause = pollInterval * errorBackoffFactor
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-time.After(pause):
		}
	}
}

// cycle performs one reconciliation pass: resolve the effective arm state,
// persist any document mutations, and converge the worker process.
func (r *reconciler) cycle(ctx context.Context, now time.Time) error {
	doc, err := armdoc.LoadOrDefaults(ctx, r.repo)
	if err != nil {
		// Reconciling against defaults would stop an armed worker over a
		// transient read failure, so the cycle is abandoned instead.
		r.metrics.ObserveReconcileCycle("error")

		return fmt.Errorf("load arm document: %w", err)
	}

	decision, mutated := arming.Decide(doc, now)
	if mutated {
		logger.InfoKV(ctx, "Manual override expired", "armed", decision.Armed, "source", string(decision.Source))
	}

	if r.refreshNextTransition(doc, now) {
		mutated = true
	}

	if mutated {
		if err := r.repo.Save(ctx, doc); err != nil {
			logger.WarnKV(ctx, "Failed to persist arm document", "error", err)
		}
	}

	if err := r.converge(ctx, decision); err != nil {
		r.metrics.ObserveReconcileCycle("error")

		return err
	}

	r.metrics.ObserveReconcileCycle("ok")

	return nil
}

// refreshNextTransition maintains the document's advertised next schedule
// flip. An active override freezes the field: its expiry already encodes the
// transition that will end it.
func (r *reconciler) refreshNextTransition(doc *arming.Document, now time.Time) bool {
	if doc.ManualOverride || !doc.ScheduleEnabled {
		return false
	}

	next := doc.Schedule.NextTransition(now)
	if equalTimePtr(doc.NextTransition, next) {
		return false
	}

	doc.NextTransition = next

	return true
}

// converge drives the worker process toward the decided arm state. A start
// or stop request is re-verified after the grace delay; convergence failure
// is reported and retried on the next cycle.
func (r *reconciler) converge(ctx context.Context, decision arming.Decision) error {
	running, err := r.supervisor.IsRunning(ctx)
	if err != nil {
		return fmt.Errorf("check worker: %w", err)
	}

	switch {
	case decision.Armed && !running:
		logger.InfoKV(ctx, "Armed but worker not running, starting", "source", string(decision.Source))

		if err := r.supervisor.Start(ctx); err != nil {
			r.metrics.ObserveWorkerAction("start", "error")

			return fmt.Errorf("start worker: %w", err)
		}

		r.wait(ctx, r.grace)

		running, err = r.supervisor.IsRunning(ctx)
		if err != nil {
			return fmt.Errorf("verify worker start: %w", err)
		}

		if !running {
			r.metrics.ObserveWorkerAction("start", "error")

			return fmt.Errorf("worker did not come up within %s", r.grace)
		}

		r.metrics.ObserveWorkerAction("start", "ok")
		logger.Info(ctx, "Worker started")
	case !decision.Armed && running:
		logger.InfoKV(ctx, "Disarmed but worker running, stopping", "source", string(decision.Source))

		if err := r.supervisor.Stop(ctx); err != nil {
			r.metrics.ObserveWorkerAction("stop", "error")

			return fmt.Errorf("stop worker: %w", err)
		}

		r.wait(ctx, r.grace)

		running, err = r.supervisor.IsRunning(ctx)
		if err != nil {
			return fmt.Errorf("verify worker stop: %w", err)
		}

		if running {
			r.metrics.ObserveWorkerAction("stop", "error")

			return fmt.Errorf("worker still running after %s", r.grace)
		}

		r.metrics.ObserveWorkerAction("stop", "ok")
		logger.Info(ctx, "Worker stopped")
	}

	return nil
}

// sleepContext pauses for the duration or until the context is canceled.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// equalTimePtr compares two optional instants.
func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}
