package arming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrewdarr/bt-sentinel/internal/schedule"
)

// testWeekly returns a schedule with a single enabled overnight window on Monday.
func testWeekly() schedule.Weekly {
	return schedule.Weekly{
		"monday": {
			Enabled: true,
			Start:   schedule.TimeOfDay{Hour: 22},
			End:     schedule.TimeOfDay{Hour: 6},
		},
	}
}

// monday returns a timestamp on a known Monday (2024-01-01) at the given clock time.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

// TestDecide_ManualFallback asserts the manual state decides when the schedule is off
// or has no opinion for the day.
func TestDecide_ManualFallback(t *testing.T) {
	t.Parallel()

	// Schedule disabled entirely.
	doc := Defaults()
	doc.Armed = true

	decision, mutated := Decide(doc, monday(12, 0))
	require.False(t, mutated)
	require.Equal(t, Decision{Armed: true, Source: SourceManual}, decision)

	// Schedule enabled but the day's window is disabled.
	doc = Defaults()
	doc.ScheduleEnabled = true
	doc.Armed = true

	decision, mutated = Decide(doc, monday(23, 0))
	require.False(t, mutated)
	require.Equal(t, Decision{Armed: true, Source: SourceManual}, decision)
}

// TestDecide_ScheduleVerdict asserts an enabled window decides both ways.
func TestDecide_ScheduleVerdict(t *testing.T) {
	t.Parallel()

	doc := Defaults()
	doc.ScheduleEnabled = true
	doc.Schedule = testWeekly()

	decision, _ := Decide(doc, monday(23, 30))
	require.Equal(t, Decision{Armed: true, Source: SourceSchedule}, decision)

	decision, _ = Decide(doc, monday(12, 0))
	require.Equal(t, Decision{Armed: false, Source: SourceSchedule}, decision)
}

// TestDecide_ActiveOverrideFreezesManualValue asserts an unexpired override wins over the schedule.
func TestDecide_ActiveOverrideFreezesManualValue(t *testing.T) {
	t.Parallel()

	expires := monday(22, 0)

	doc := Defaults()
	doc.ScheduleEnabled = true
	doc.Schedule = testWeekly()
	doc.Armed = false
	doc.ManualOverride = true
	doc.OverrideExpires = &expires

	// Inside the armed window, but the override holds the system disarmed.
	decision, mutated := Decide(doc, monday(21, 0))
	require.False(t, mutated)
	require.Equal(t, Decision{Armed: false, Source: SourceOverride}, decision)
}

// TestDecide_StaleOverrideClearsAndFallsThrough asserts lazy expiry on the same evaluation.
func TestDecide_StaleOverrideClearsAndFallsThrough(t *testing.T) {
	t.Parallel()

	expires := monday(22, 0)

	doc := Defaults()
	doc.ScheduleEnabled = true
	doc.Schedule = testWeekly()
	doc.Armed = false
	doc.ManualOverride = true
	doc.OverrideExpires = &expires

	// Exactly at expiry the override is stale; the schedule's verdict applies.
	decision, mutated := Decide(doc, monday(22, 0))
	require.True(t, mutated)
	require.False(t, doc.ManualOverride)
	require.Nil(t, doc.OverrideExpires)
	require.Equal(t, Decision{Armed: true, Source: SourceSchedule}, decision)
}

// TestDecide_OverrideWithoutExpiryNeverClears asserts a nil expiry persists indefinitely.
func TestDecide_OverrideWithoutExpiryNeverClears(t *testing.T) {
	t.Parallel()

	doc := Defaults()
	doc.ScheduleEnabled = true
	doc.Schedule = testWeekly()
	doc.Armed = true
	doc.ManualOverride = true

	decision, mutated := Decide(doc, monday(12, 0).AddDate(1, 0, 0))
	require.False(t, mutated)
	require.Equal(t, Decision{Armed: true, Source: SourceOverride}, decision)
}

// TestSetManual_CreatesOverrideWithScheduleExpiry asserts a manual command while the
// schedule is enabled becomes an override expiring at the next transition.
func TestSetManual_CreatesOverrideWithScheduleExpiry(t *testing.T) {
	t.Parallel()

	doc := Defaults()
	doc.ScheduleEnabled = true
	doc.Schedule = testWeekly()

	SetManual(doc, true, monday(12, 0))

	require.True(t, doc.Armed)
	require.True(t, doc.ManualOverride)
	require.NotNil(t, doc.OverrideExpires)
	require.Equal(t, monday(22, 0), *doc.OverrideExpires)
}

// TestSetManual_NoTransitionMeansNoExpiry asserts the override never expires when
// no future transition exists.
func TestSetManual_NoTransitionMeansNoExpiry(t *testing.T) {
	t.Parallel()

	doc := Defaults()
	doc.ScheduleEnabled = true // All stock windows are disabled.

	SetManual(doc, true, monday(12, 0))

	require.True(t, doc.ManualOverride)
	require.Nil(t, doc.OverrideExpires)
}

// TestSetManual_ScheduleDisabledClearsOverride asserts a plain manual command
// leaves no override behind.
func TestSetManual_ScheduleDisabledClearsOverride(t *testing.T) {
	t.Parallel()

	expires := monday(22, 0)

	doc := Defaults()
	doc.ManualOverride = true
	doc.OverrideExpires = &expires

	SetManual(doc, false, monday(12, 0))

	require.False(t, doc.Armed)
	require.False(t, doc.ManualOverride)
	require.Nil(t, doc.OverrideExpires)
}

// TestClone verifies deep copies do not alias the source document.
func TestClone(t *testing.T) {
	t.Parallel()

	expires := monday(22, 0)

	doc := Defaults()
	doc.OverrideExpires = &expires

	clone := doc.Clone()
	clone.Schedule["monday"] = schedule.DayWindow{Enabled: true}
	*clone.OverrideExpires = monday(23, 0)

	require.False(t, doc.Schedule["monday"].Enabled)
	require.Equal(t, monday(22, 0), *doc.OverrideExpires)
}
