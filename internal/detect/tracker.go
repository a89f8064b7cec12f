// Package detect converts intermittent device sightings into a debounced
// intrusion signal.
//
// The tracker is a pure state machine over scan snapshots: IDLE while nothing
// is visible, DETECTING from the first sighting, CONFIRMED once presence has
// lasted the dwell threshold, and back to IDLE on the first empty snapshot.
// Time is always injected, never read from the clock, so the machine is fully
// deterministic under test.
package detect

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewdarr/bt-sentinel/internal/scanner"
)

// State is the tracker's debounce state.
type State int

const (
	// StateIdle means no detection episode is open.
	StateIdle State = iota
	// StateDetecting means an episode is open but dwell time is below the threshold.
	StateDetecting
	// StateConfirmed means presence lasted at least the threshold; terminal until the episode clears.
	StateConfirmed
)

// String returns a State name for logs.
func (s State) String() string {
	switch s {
	case StateDetecting:
		return "DETECTING"
	case StateConfirmed:
		return "CONFIRMED"
	default:
		return "IDLE"
	}
}

// EventType classifies what a snapshot did to the tracker.
type EventType int

const (
	// EventNone means the snapshot changed nothing observable.
	EventNone EventType = iota
	// EventFirstDetection means a new episode opened.
	EventFirstDetection
	// EventConfirmed means dwell time reached the threshold this cycle.
	EventConfirmed
	// EventCleared means an empty snapshot discarded the open episode.
	EventCleared
)

// Event reports the observable outcome of one snapshot.
type Event struct {
	// Type classifies the outcome.
	Type EventType
	// Episode is the affected episode. For EventCleared it is the episode
	// that was just discarded; nil for EventNone with no open episode.
	Episode *Episode
}

// Episode is one contiguous span from first sighting to the next empty snapshot.
// It is discarded, not archived, when it clears.
type Episode struct {
	// ID correlates audit records and notifications for this episode.
	ID string
	// FirstSeenAt is when the first non-exempt device appeared.
	FirstSeenAt time.Time
	// Devices maps identifier to the latest sighting; later readings
	// overwrite earlier ones for the same identifier.
	Devices map[string]scanner.Sighting
}

// DeviceCount returns how many distinct devices the episode has seen.
func (e *Episode) DeviceCount() int {
	return len(e.Devices)
}

// DeviceLines renders one "name (id) rssi" line per device for notifications.
func (e *Episode) DeviceLines() []string {
	lines := make([]string, 0, len(e.Devices))

	for id, sighting := range e.Devices {
		lines = append(lines, fmt.Sprintf("%s (%s) %d dBm", sighting.Name, id, sighting.Signal))
	}

	return lines
}

// Tracker is the presence debounce state machine.
type Tracker struct {
	// threshold is the continuous-presence duration before confirmation.
	threshold time.Duration

	state   State
	episode *Episode
}

// NewTracker creates a tracker with the given dwell threshold.
func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{threshold: threshold}
}

// State returns the current debounce state.
func (t *Tracker) State() State {
	return t.state
}

// Episode returns the open episode, or nil while idle.
func (t *Tracker) Episode() *Episode {
	return t.episode
}

// Observe feeds one snapshot into the machine and returns the resulting event.
//
// Callers must not call Observe for a failed scan: a scan-driver error skips
// the cycle entirely so a transient radio failure cannot clear an episode.
func (t *Tracker) Observe(now time.Time, sightings []scanner.Sighting) Event {
	if len(sightings) == 0 {
		return t.observeEmpty()
	}

	if t.episode == nil {
		t.episode = &Episode{
			ID:          uuid.NewString(),
			FirstSeenAt: now,
			Devices:     make(map[string]scanner.Sighting, len(sightings)),
		}
		t.state = StateDetecting
		t.merge(sightings)

		return Event{Type: EventFirstDetection, Episode: t.episode}
	}

	t.merge(sightings)

	// Threshold boundary is inclusive. Once confirmed, stay confirmed
	// without re-emitting until the episode clears.
	if t.state == StateDetecting && now.Sub(t.episode.FirstSeenAt) >= t.threshold {
		t.state = StateConfirmed

		return Event{Type: EventConfirmed, Episode: t.episode}
	}

	return Event{Type: EventNone, Episode: t.episode}
}

// observeEmpty discards any open episode and returns to idle.
func (t *Tracker) observeEmpty() Event {
	if t.episode == nil {
		return Event{Type: EventNone}
	}

	cleared := t.episode
	t.episode = nil
	t.state = StateIdle

	return Event{Type: EventCleared, Episode: cleared}
}

// merge folds sightings into the episode's device map by identifier.
func (t *Tracker) merge(sightings []scanner.Sighting) {
	for _, s := range sightings {
		t.episode.Devices[s.ID] = s
	}
}
