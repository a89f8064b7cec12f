// Package audit records detection and alarm events for later review.
// The write path must never disturb the monitoring loop: recording failures
// are the caller's to log and ignore.
package audit

import (
	"context"
	"time"
)

// EventType names the recorded occurrence.
type EventType string

const (
	// EventFirstDetection marks a new detection episode.
	EventFirstDetection EventType = "FIRST_DETECTION"
	// EventIntrusionConfirmed marks the dwell threshold being reached.
	EventIntrusionConfirmed EventType = "INTRUSION_CONFIRMED"
	// EventDetectionCleared marks an episode discarded by an empty scan.
	EventDetectionCleared EventType = "DETECTION_CLEARED"
	// EventAlarmTriggered marks the actuator being energized.
	EventAlarmTriggered EventType = "ALARM_TRIGGERED"
	// EventAlarmStopped marks the actuator being de-energized.
	EventAlarmStopped EventType = "ALARM_STOPPED"
	// EventWorkerStarted marks the monitoring worker coming up.
	EventWorkerStarted EventType = "WORKER_STARTED"
	// EventWorkerStopped marks the monitoring worker shutting down.
	EventWorkerStopped EventType = "WORKER_STOPPED"
)

// Event is one audit record.
type Event struct {
	// ID is assigned by the store.
	ID int64
	// EpisodeID correlates records of one detection episode; may be empty.
	EpisodeID string
	// Type names the occurrence.
	Type EventType
	// At is when the event happened.
	At time.Time
	// Details is a free-form human-readable summary.
	Details string
}

// Recorder persists audit events.
type Recorder interface {
	// Record appends one event.
	Record(ctx context.Context, event Event) error
	// Close releases the underlying store.
	Close() error
}

// Nop discards every event; used when no audit path is configured.
type Nop struct{}

// Record discards the event.
func (Nop) Record(context.Context, Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
