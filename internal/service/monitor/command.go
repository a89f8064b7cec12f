package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/andrewdarr/bt-sentinel/internal/alarm"
	"github.com/andrewdarr/bt-sentinel/internal/audit"
	"github.com/andrewdarr/bt-sentinel/internal/config"
	"github.com/andrewdarr/bt-sentinel/internal/detect"
	"github.com/andrewdarr/bt-sentinel/internal/logger"
	"github.com/andrewdarr/bt-sentinel/internal/metrics"
	"github.com/andrewdarr/bt-sentinel/internal/notify"
	"github.com/andrewdarr/bt-sentinel/internal/relay"
	"github.com/andrewdarr/bt-sentinel/internal/repository/armdoc"
	"github.com/andrewdarr/bt-sentinel/internal/scanner"
)

// Options controls the monitoring worker behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Debug logs detections without energizing the alarm output.
	Debug bool
}

// loop holds the wired dependencies for one monitoring run. Keeping them on
// a struct lets tests drive cycles with fakes and explicit clocks.
type loop struct {
	scanner     scanner.Scanner
	scanTimeout time.Duration
	exempt      scanner.ExemptSet
	tracker     *detect.Tracker
	controller  *alarm.Controller
	recorder    audit.Recorder
	metrics     *metrics.Recorder
}

// Run executes the monitoring worker until the context is canceled. It scans
// for devices on a fixed cadence, tracks detection episodes and drives the
// alarm controller on confirmation.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sentinel-monitor")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Trigger threshold and scan cadence are runtime tunables shared with
	// the controller binary, so they come from the arm document.
	repo := armdoc.NewFileRepository(settings.ArmStateFile)

	doc, err := armdoc.LoadOrDefaults(ctx, repo)
	if err != nil {
		logger.WarnKV(ctx, "Arm document unreadable, using defaults", "error", err)
	}

	threshold := doc.TriggerThreshold()
	interval := doc.ScanInterval()

	recorder, err := openRecorder(settings)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	defer func() {
		_ = recorder.Close()
	}()

	out := openRelay(ctx, settings, opts.Debug)

	notifiers, err := buildNotifiers(settings)
	if err != nil {
		return fmt.Errorf("build notifiers: %w", err)
	}

	defer closeNotifiers(notifiers)

	metricsRecorder := metrics.NewRecorder(prom.NewRegistry())
	if settings.MetricsAddress != "" {
		go metricsRecorder.Serve(ctx, settings.MetricsAddress)
	}

	controller := alarm.NewController(alarm.Options{
		Relay:     out,
		Notifiers: notifiers,
		Recorder:  recorder,
		Metrics:   metricsRecorder,
		SiteID:    settings.SiteID,
		AutoOff:   settings.AlarmDuration,
	})

	l := &loop{
		scanner:     scanner.NewExecScanner(settings.ScanCommand),
		scanTimeout: settings.ScanTimeout,
		exempt:      scanner.NewExemptSet(ctx, settings.ExemptDevices),
		tracker:     detect.NewTracker(threshold),
		controller:  controller,
		recorder:    recorder,
		metrics:     metricsRecorder,
	}

	logger.InfoKV(ctx, "Monitoring started",
		"site_id", settings.SiteID,
		"scan_interval", interval.String(),
		"trigger_threshold", threshold.String(),
		"exempt_devices", len(l.exempt),
	)

	l.record(ctx, "", audit.EventWorkerStarted, settings.SiteID)

	defer func() {
		// The run context is already canceled during shutdown.
		shutdownCtx := context.WithoutCancel(ctx)
		controller.Shutdown(shutdownCtx)
		l.record(shutdownCtx, "", audit.EventWorkerStopped, "")
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case now := <-ticker.C:
			l.cycle(ctx, now)
		}
	}
}

// cycle runs one scan and feeds the result through the episode tracker.
// A failed scan is skipped entirely so transient radio errors can never
// clear an open episode.
func (l *loop) cycle(ctx context.Context, now time.Time) {
	sightings, err := l.scanner.Scan(ctx, l.scanTimeout)
	if err != nil {
		logger.ErrorKV(ctx, "Scan failed, skipping cycle", "error", err)
		l.metrics.ObserveScanCycle("error")

		return
	}

	l.metrics.ObserveScanCycle("ok")

	event := l.tracker.Observe(now, l.exempt.Filter(sightings))

	switch event.Type {
	case detect.EventNone:
	case detect.EventFirstDetection:
		logger.WarnKV(ctx, "Device detected",
			"episode_id", event.Episode.ID,
			"devices", strings.Join(event.Episode.DeviceLines(), "; "),
		)
		l.metrics.ObserveEpisodeOpened()
		l.record(ctx, event.Episode.ID, audit.EventFirstDetection,
			strings.Join(event.Episode.DeviceLines(), "; "))
	case detect.EventConfirmed:
		l.record(ctx, event.Episode.ID, audit.EventIntrusionConfirmed,
			fmt.Sprintf("dwell %s", now.Sub(event.Episode.FirstSeenAt)))
		l.controller.Trigger(ctx, event.Episode)
	case detect.EventCleared:
		logger.InfoKV(ctx, "Detection cleared", "episode_id", event.Episode.ID)
		l.record(ctx, event.Episode.ID, audit.EventDetectionCleared, "")

		// With a fixed alarm duration the auto-off timer owns the stop;
		// otherwise the alarm follows presence.
		if !l.controller.AutoOffConfigured() {
			l.controller.Stop(ctx)
		}
	}
}

// record writes an audit event, logging instead of failing on error.
func (l *loop) record(ctx context.Context, episodeID string, kind audit.EventType, details string) {
	event := audit.Event{
		EpisodeID: episodeID,
		Type:      kind,
		At:        time.Now(),
		Details:   details,
	}

	if err := l.recorder.Record(ctx, event); err != nil {
		logger.ErrorKV(ctx, "Failed to record audit event", "event", string(kind), "error", err)
	}
}

// openRecorder returns the configured audit recorder, or a no-op one when
// no database path is set.
func openRecorder(settings *config.Settings) (audit.Recorder, error) {
	if settings.AuditDatabase == "" {
		return audit.Nop{}, nil
	}

	return audit.NewSQLiteRecorder(settings.AuditDatabase)
}

// openRelay sets up the GPIO output, degrading to a no-op relay when the
// hardware is unavailable so detection and notifications keep working.
func openRelay(ctx context.Context, settings *config.Settings, debug bool) relay.Relay {
	if debug {
		logger.Info(ctx, "Debug mode, alarm output disabled")
		return relay.Nop{}
	}

	out, err := relay.NewGPIORelay(settings.GPIOChip, settings.GPIOPin, settings.GPIOActiveHigh)
	if err != nil {
		logger.WarnKV(ctx, "GPIO unavailable, running without alarm output", "error", err)
		return relay.Nop{}
	}

	return out
}

// buildNotifiers wires the configured alert channels.
func buildNotifiers(settings *config.Settings) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier

	if len(settings.EmailRecipients) > 0 {
		subject := fmt.Sprintf("Security alert: %s", settings.SiteID)

		email, err := notify.NewEmailNotifier(settings.SMTP, subject, settings.EmailRecipients)
		if err != nil {
			return nil, fmt.Errorf("email notifier: %w", err)
		}

		notifiers = append(notifiers, email)
	}

	if len(settings.VoicePhones) > 0 {
		voice, err := notify.NewVoiceNotifier(settings.SMTP, settings.VoiceMessage, settings.VoicePhones)
		if err != nil {
			return nil, fmt.Errorf("voice notifier: %w", err)
		}

		notifiers = append(notifiers, voice)
	}

	if settings.MQTTBroker != "" {
		clientID := "sentinel-monitor-" + settings.SiteID

		mqtt, err := notify.NewMQTTNotifier(settings.MQTTBroker, clientID, settings.MQTTTopic)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}

		notifiers = append(notifiers, mqtt)
	}

	return notifiers, nil
}

// closeNotifiers releases channels holding long-lived connections.
func closeNotifiers(notifiers []notify.Notifier) {
	for _, n := range notifiers {
		if closer, ok := n.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
