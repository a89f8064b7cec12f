// Package alarm owns the physical alarm output for one intrusion episode.
//
// Trigger and Stop are idempotent: the actuator is energized exactly once per
// episode no matter how many confirmed scans follow, and a stop request on an
// inactive alarm is a no-op. The optional auto-off timer is a cancellable
// deferred stop owned by the controller, so a stale timer can never re-fire
// after a fresh trigger.
package alarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/audit"
	"github.com/andrewdarr/bt-sentinel/internal/detect"
	"github.com/andrewdarr/bt-sentinel/internal/logger"
	"github.com/andrewdarr/bt-sentinel/internal/metrics"
	"github.com/andrewdarr/bt-sentinel/internal/notify"
	"github.com/andrewdarr/bt-sentinel/internal/relay"
)

// Controller drives the actuator and fans confirmed intrusions out to the
// notification channels.
type Controller struct {
	relay     relay.Relay
	notifiers []notify.Notifier
	recorder  audit.Recorder
	metrics   *metrics.Recorder

	// siteID identifies this installation in alert messages.
	siteID string
	// autoOff is the alarm duration; zero means the alarm stays on until
	// the episode clears or a manual stop.
	autoOff time.Duration

	mu       sync.Mutex
	active   bool
	offTimer *time.Timer
}

// Options configures a Controller.
type Options struct {
	// Relay is the actuator to drive; nil degrades to a no-op output.
	Relay relay.Relay
	// Notifiers are the alert channels to fan out to.
	Notifiers []notify.Notifier
	// Recorder receives audit events; nil disables auditing.
	Recorder audit.Recorder
	// Metrics receives counters; nil disables them.
	Metrics *metrics.Recorder
	// SiteID identifies this installation in alert messages.
	SiteID string
	// AutoOff schedules a deferred stop this long after a trigger; zero disables it.
	AutoOff time.Duration
}

// NewController creates a controller in the inactive state.
func NewController(opts Options) *Controller {
	r := opts.Relay
	if r == nil {
		r = relay.Nop{}
	}

	rec := opts.Recorder
	if rec == nil {
		rec = audit.Nop{}
	}

	return &Controller{
		relay:     r,
		notifiers: opts.Notifiers,
		recorder:  rec,
		metrics:   opts.Metrics,
		siteID:    opts.SiteID,
		autoOff:   opts.AutoOff,
	}
}

// Active reports whether the alarm output is currently energized.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

// AutoOffConfigured reports whether a nonzero alarm duration is set.
func (c *Controller) AutoOffConfigured() bool {
	return c.autoOff > 0
}

// Trigger activates the actuator for the confirmed episode. A second call
// without an intervening Stop is a no-op and repeats no notification.
// A relay failure is logged and does not prevent the notification fan-out;
// detection still has value with a dead output.
func (c *Controller) Trigger(ctx context.Context, episode *detect.Episode) {
	c.mu.Lock()

	if c.active {
		c.mu.Unlock()

		return
	}

	c.active = true

	if c.autoOff > 0 {
		c.offTimer = time.AfterFunc(c.autoOff, func() {
			autoCtx := logger.WithName(context.Background(), "alarm-auto-off")
			logger.Info(autoCtx, "Alarm duration elapsed, stopping")
			c.Stop(autoCtx)
		})
	}

	c.mu.Unlock()

	if err := c.relay.On(); err != nil {
		logger.ErrorKV(ctx, "Failed to energize relay", "error", err)
	}

	c.metrics.ObserveAlarmTriggered()

	logger.WarnKV(ctx, "ALARM TRIGGERED",
		"episode_id", episode.ID,
		"device_count", episode.DeviceCount(),
	)

	alert := notify.Alert{
		At:          time.Now(),
		SiteID:      c.siteID,
		EpisodeID:   episode.ID,
		DeviceCount: episode.DeviceCount(),
		Devices:     episode.DeviceLines(),
	}

	notify.Fanout(ctx, c.notifiers, alert, func(channel string, err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}

		c.metrics.ObserveNotification(channel, result)
	})

	c.record(ctx, episode.ID, audit.EventAlarmTriggered,
		fmt.Sprintf("%d device(s) present", episode.DeviceCount()))
}

// Stop deactivates the actuator and cancels any pending auto-off timer.
// A no-op when the alarm is already inactive.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()

	if !c.active {
		c.mu.Unlock()

		return
	}

	c.active = false

	if c.offTimer != nil {
		c.offTimer.Stop()
		c.offTimer = nil
	}

	c.mu.Unlock()

	if err := c.relay.Off(); err != nil {
		logger.ErrorKV(ctx, "Failed to de-energize relay", "error", err)
	}

	logger.Info(ctx, "Alarm stopped")
	c.record(ctx, "", audit.EventAlarmStopped, "")
}

// Shutdown stops the alarm and releases the actuator.
func (c *Controller) Shutdown(ctx context.Context) {
	c.Stop(ctx)

	if err := c.relay.Close(); err != nil {
		logger.ErrorKV(ctx, "Failed to release relay", "error", err)
	}
}

// record writes an audit event, logging instead of failing on error.
func (c *Controller) record(ctx context.Context, episodeID string, kind audit.EventType, details string) {
	event := audit.Event{
		EpisodeID: episodeID,
		Type:      kind,
		At:        time.Now(),
		Details:   details,
	}

	if err := c.recorder.Record(ctx, event); err != nil {
		logger.ErrorKV(ctx, "Failed to record audit event", "event", string(kind), "error", err)
	}
}
