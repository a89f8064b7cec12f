package arming

import (
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/schedule"
)

// Document is the shared arm configuration exchanged between the
// reconciliation daemon, the monitoring worker and the control surface.
// Writers always replace the whole document (last writer wins); the JSON
// field names are the cross-process wire format and must not change.
type Document struct {
	// Armed is the last manual arm/disarm command.
	Armed bool `json:"armed"`
	// ScheduleEnabled turns the weekly schedule on or off.
	ScheduleEnabled bool `json:"schedule_enabled"`
	// ManualOverride marks that a manual command temporarily supersedes the schedule.
	ManualOverride bool `json:"manual_override"`
	// OverrideExpires is the instant the override lapses; nil means it never expires.
	OverrideExpires *time.Time `json:"override_expires"`
	// NextTransition is the next schedule flip, maintained by the daemon for observability.
	NextTransition *time.Time `json:"next_transition,omitempty"`
	// Schedule holds the weekly arming windows.
	Schedule schedule.Weekly `json:"schedule"`
	// TriggerThresholdSeconds is the dwell time before presence counts as an intrusion.
	TriggerThresholdSeconds int `json:"trigger_threshold"`
	// ScanIntervalSeconds is the pause between scan cycles in the monitoring loop.
	ScanIntervalSeconds int `json:"scan_interval"`
}

const (
	// DefaultTriggerThresholdSeconds is the dwell time before the alarm fires.
	DefaultTriggerThresholdSeconds = 45
	// DefaultScanIntervalSeconds is the pause between scan cycles.
	DefaultScanIntervalSeconds = 3
)

// Defaults returns a disarmed document with the stock schedule:
// every day carries a disabled overnight 18:00-06:00 window.
func Defaults() *Document {
	var (
		start  = schedule.TimeOfDay{Hour: 18}
		end    = schedule.TimeOfDay{Hour: 6}
		weekly = make(schedule.Weekly, 7)
	)

	for day := time.Sunday; day <= time.Saturday; day++ {
		weekly[schedule.DayKey(day)] = schedule.DayWindow{Start: start, End: end}
	}

	return &Document{
		Schedule:                weekly,
		TriggerThresholdSeconds: DefaultTriggerThresholdSeconds,
		ScanIntervalSeconds:     DefaultScanIntervalSeconds,
	}
}

// TriggerThreshold returns the dwell threshold as a duration,
// falling back to the default when the document carries no usable value.
func (d *Document) TriggerThreshold() time.Duration {
	if d.TriggerThresholdSeconds <= 0 {
		return DefaultTriggerThresholdSeconds * time.Second
	}

	return time.Duration(d.TriggerThresholdSeconds) * time.Second
}

// ScanInterval returns the scan cadence as a duration,
// falling back to the default when the document carries no usable value.
func (d *Document) ScanInterval() time.Duration {
	if d.ScanIntervalSeconds <= 0 {
		return DefaultScanIntervalSeconds * time.Second
	}

	return time.Duration(d.ScanIntervalSeconds) * time.Second
}

// Clone returns a deep copy so callers can mutate without aliasing the source.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	clone := *d

	if d.OverrideExpires != nil {
		expires := *d.OverrideExpires
		clone.OverrideExpires = &expires
	}

	if d.NextTransition != nil {
		next := *d.NextTransition
		clone.NextTransition = &next
	}

	clone.Schedule = make(schedule.Weekly, len(d.Schedule))
	for day, window := range d.Schedule {
		clone.Schedule[day] = window
	}

	return &clone
}
