// Package schedule implements the weekly arming schedule evaluation.
//
// A schedule maps each weekday to a single time window. Evaluation is a pure
// function of the schedule and a timestamp: it either has no opinion (the
// day's window is disabled) or yields an armed/disarmed verdict. Windows
// whose start is later than their end span midnight into the next day.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Verdict is the schedule's opinion for a given moment.
type Verdict int

const (
	// NoOpinion means the current day's window is disabled and the
	// schedule defers to the manual arm state.
	NoOpinion Verdict = iota
	// Disarmed means the moment falls outside an enabled window.
	Disarmed
	// Armed means the moment falls inside an enabled window.
	Armed
)

// String returns a human-readable verdict name for logs.
func (v Verdict) String() string {
	switch v {
	case Armed:
		return "armed"
	case Disarmed:
		return "disarmed"
	default:
		return "no opinion"
	}
}

// TimeOfDay is a wall-clock time with no date, serialized as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

// errBadTimeOfDay is returned when a time-of-day string is not "HH:MM".
var errBadTimeOfDay = errors.New("time of day must be HH:MM")

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &hour, &minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", errBadTimeOfDay, s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", errBadTimeOfDay, s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// After reports whether t is later in the day than other.
func (t TimeOfDay) After(other TimeOfDay) bool {
	return t.Minutes() > other.Minutes()
}

// MarshalJSON encodes the time as a "HH:MM" JSON string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a "HH:MM" JSON string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	parsed, err := ParseTimeOfDay(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// MarshalYAML encodes the time as a "HH:MM" scalar.
func (t TimeOfDay) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML decodes a "HH:MM" scalar.
func (t *TimeOfDay) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// DayWindow is a single day's arming window. When Start is later than End
// the window wraps past midnight into the following day.
type DayWindow struct {
	// Enabled controls whether the schedule has an opinion on this day.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Start is the wall-clock start of the armed window.
	Start TimeOfDay `json:"start" yaml:"start"`
	// End is the wall-clock end of the armed window.
	End TimeOfDay `json:"end" yaml:"end"`
}

// Weekly maps lowercase weekday names to day windows.
// A well-formed schedule has exactly one entry per weekday.
type Weekly map[string]DayWindow

// DayKey returns the lowercase weekday name used as the schedule map key.
func DayKey(day time.Weekday) string {
	return strings.ToLower(day.String())
}

// Evaluate returns the schedule's opinion for the provided moment.
// Window bounds are inclusive on both ends.
func (w Weekly) Evaluate(now time.Time) Verdict {
	day, ok := w[DayKey(now.Weekday())]
	if !ok || !day.Enabled {
		return NoOpinion
	}

	var (
		minute = now.Hour()*60 + now.Minute()
		start  = day.Start.Minutes()
		end    = day.End.Minutes()
	)

	if start > end {
		// Overnight window wrapping past midnight.
		if minute >= start || minute <= end {
			return Armed
		}

		return Disarmed
	}

	if minute >= start && minute <= end {
		return Armed
	}

	return Disarmed
}

// NextTransition returns the next instant at which the schedule's verdict
// flips, scanning today and up to six days forward. For today the transition
// is the window start when now is before it, or the window end (shifted a
// day forward for overnight windows) when now falls inside the window.
// Returns nil when no day is enabled.
func (w Weekly) NextTransition(now time.Time) *time.Time {
	const daysInWeek = 7

	for ahead := 0; ahead < daysInWeek; ahead++ {
		date := now.AddDate(0, 0, ahead)

		day, ok := w[DayKey(date.Weekday())]
		if !ok || !day.Enabled {
			continue
		}

		start := at(date, day.Start)

		end := at(date, day.End)
		if day.Start.After(day.End) {
			end = end.AddDate(0, 0, 1)
		}

		if ahead > 0 {
			return &start
		}

		if now.Before(start) {
			return &start
		}

		if now.Before(end) {
			return &end
		}
	}

	return nil
}

// at combines a date with a wall-clock time in the date's location.
func at(date time.Time, tod TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, date.Location())
}
