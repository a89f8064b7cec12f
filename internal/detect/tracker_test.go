package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrewdarr/bt-sentinel/internal/scanner"
)

const threshold = 45 * time.Second

// sighting builds a snapshot entry for tests.
func sighting(id, name string, signal int) scanner.Sighting {
	return scanner.Sighting{ID: id, Name: name, Signal: signal}
}

// TestTracker_FirstDetectionOpensEpisode verifies the IDLE -> DETECTING transition.
func TestTracker_FirstDetectionOpensEpisode(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(threshold)
	require.Equal(t, StateIdle, tracker.State())

	start := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

	event := tracker.Observe(start, []scanner.Sighting{sighting("AA:BB:CC:DD:EE:FF", "Phone", -60)})
	require.Equal(t, EventFirstDetection, event.Type)
	require.Equal(t, StateDetecting, tracker.State())
	require.NotEmpty(t, event.Episode.ID)
	require.Equal(t, start, event.Episode.FirstSeenAt)
	require.Equal(t, 1, event.Episode.DeviceCount())
}

// TestTracker_ConfirmsAtExactThreshold verifies the inclusive dwell boundary:
// confirmation fires at exactly 45s and not one scan interval earlier.
func TestTracker_ConfirmsAtExactThreshold(t *testing.T) {
	t.Parallel()

	var (
		tracker  = NewTracker(threshold)
		start    = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
		snapshot = []scanner.Sighting{sighting("AA:BB:CC:DD:EE:FF", "Phone", -60)}
		interval = 3 * time.Second
	)

	tracker.Observe(start, snapshot)

	// One interval before the threshold: still detecting.
	event := tracker.Observe(start.Add(threshold-interval), snapshot)
	require.Equal(t, EventNone, event.Type)
	require.Equal(t, StateDetecting, tracker.State())

	// Exactly at the threshold: confirmed.
	event = tracker.Observe(start.Add(threshold), snapshot)
	require.Equal(t, EventConfirmed, event.Type)
	require.Equal(t, StateConfirmed, tracker.State())
}

// TestTracker_ConfirmedIsNotReEmitted verifies re-entrancy after confirmation.
func TestTracker_ConfirmedIsNotReEmitted(t *testing.T) {
	t.Parallel()

	var (
		tracker  = NewTracker(threshold)
		start    = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
		snapshot = []scanner.Sighting{sighting("AA:BB:CC:DD:EE:FF", "Phone", -60)}
	)

	tracker.Observe(start, snapshot)
	require.Equal(t, EventConfirmed, tracker.Observe(start.Add(threshold), snapshot).Type)

	for i := 1; i <= 5; i++ {
		event := tracker.Observe(start.Add(threshold+time.Duration(i)*time.Second), snapshot)
		require.Equal(t, EventNone, event.Type)
		require.Equal(t, StateConfirmed, tracker.State())
	}
}

// TestTracker_EmptySnapshotClearsEpisode verifies the episode is discarded in any state.
func TestTracker_EmptySnapshotClearsEpisode(t *testing.T) {
	t.Parallel()

	var (
		tracker  = NewTracker(threshold)
		start    = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
		snapshot = []scanner.Sighting{sighting("AA:BB:CC:DD:EE:FF", "Phone", -60)}
	)

	// Clear while still detecting.
	tracker.Observe(start, snapshot)

	event := tracker.Observe(start.Add(time.Second), nil)
	require.Equal(t, EventCleared, event.Type)
	require.Equal(t, StateIdle, tracker.State())
	require.Nil(t, tracker.Episode())
	require.NotNil(t, event.Episode)

	// Clear after confirmation; a fresh episode afterwards starts the dwell over.
	tracker.Observe(start, snapshot)
	tracker.Observe(start.Add(threshold), snapshot)
	require.Equal(t, EventCleared, tracker.Observe(start.Add(threshold+time.Second), nil).Type)

	event = tracker.Observe(start.Add(threshold+2*time.Second), snapshot)
	require.Equal(t, EventFirstDetection, event.Type)
	require.Equal(t, StateDetecting, tracker.State())
}

// TestTracker_EmptyWhileIdleIsANoOp verifies empty snapshots with no episode emit nothing.
func TestTracker_EmptyWhileIdleIsANoOp(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(threshold)

	event := tracker.Observe(time.Now(), nil)
	require.Equal(t, EventNone, event.Type)
	require.Nil(t, event.Episode)
}

// TestTracker_MergeOverwritesByIdentifier verifies later readings replace earlier ones.
func TestTracker_MergeOverwritesByIdentifier(t *testing.T) {
	t.Parallel()

	var (
		tracker = NewTracker(threshold)
		start   = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	)

	tracker.Observe(start, []scanner.Sighting{sighting("AA:BB:CC:DD:EE:FF", "Phone", -80)})
	tracker.Observe(start.Add(3*time.Second), []scanner.Sighting{
		sighting("AA:BB:CC:DD:EE:FF", "Phone", -55),
		sighting("11:22:33:44:55:66", "Watch", -70),
	})

	episode := tracker.Episode()
	require.Equal(t, 2, episode.DeviceCount())
	require.Equal(t, -55, episode.Devices["AA:BB:CC:DD:EE:FF"].Signal)
	require.Len(t, episode.DeviceLines(), 2)
}
