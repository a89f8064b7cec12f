// Package arming combines the weekly schedule, the manual override and the
// last manual command into the single effective armed/disarmed decision, and
// defines the shared document those inputs live in.
package arming

import (
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/schedule"
)

// Source identifies which input produced the effective decision.
type Source string

const (
	// SourceOverride means an active manual override froze the decision.
	SourceOverride Source = "override"
	// SourceSchedule means the weekly schedule produced the decision.
	SourceSchedule Source = "schedule"
	// SourceManual means the decision fell through to the last manual command.
	SourceManual Source = "manual"
)

// Decision is the effective arm state and where it came from.
type Decision struct {
	// Armed is the authoritative "should be armed" answer.
	Armed bool
	// Source names the input that decided.
	Source Source
}

// Decide resolves the effective arm state for the given moment.
//
// A stale override (expiry at or before now) is cleared on the document
// before anything else is consulted; the returned bool reports that
// mutation so callers can persist it. An override that is still active
// freezes the decision at the manual arm value. Otherwise an enabled
// schedule with an opinion for the current day decides, and the manual
// arm value is the final fallback.
func Decide(doc *Document, now time.Time) (Decision, bool) {
	mutated := clearStaleOverride(doc, now)

	if doc.ManualOverride {
		return Decision{Armed: doc.Armed, Source: SourceOverride}, mutated
	}

	if doc.ScheduleEnabled {
		switch doc.Schedule.Evaluate(now) {
		case schedule.Armed:
			return Decision{Armed: true, Source: SourceSchedule}, mutated
		case schedule.Disarmed:
			return Decision{Armed: false, Source: SourceSchedule}, mutated
		case schedule.NoOpinion:
			// Fall through to the manual state.
		}
	}

	return Decision{Armed: doc.Armed, Source: SourceManual}, mutated
}

// SetManual records a manual arm/disarm command on the document.
// While the schedule is enabled the command becomes an override expiring at
// the next schedule transition; with no future transition the override never
// expires and the schedule is effectively inert until the next command.
func SetManual(doc *Document, armed bool, now time.Time) {
	doc.Armed = armed

	if !doc.ScheduleEnabled {
		doc.ManualOverride = false
		doc.OverrideExpires = nil

		return
	}

	doc.ManualOverride = true
	doc.OverrideExpires = doc.Schedule.NextTransition(now)
}

// clearStaleOverride lazily clears an expired override, reporting whether
// the document changed.
func clearStaleOverride(doc *Document, now time.Time) bool {
	if !doc.ManualOverride || doc.OverrideExpires == nil {
		return false
	}

	if now.Before(*doc.OverrideExpires) {
		return false
	}

	doc.ManualOverride = false
	doc.OverrideExpires = nil

	return true
}
