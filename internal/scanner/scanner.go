// Package scanner defines the wireless scan driver boundary.
//
// The monitoring loop consumes snapshots of currently-visible devices and
// never talks to the radio directly. A scan failure is an error, not an
// empty snapshot: the distinction keeps a transient radio problem from
// clearing an open detection episode.
package scanner

import (
	"context"
	"time"
)

// Sighting is one device visible in a scan snapshot.
// Sightings are ephemeral and rebuilt every cycle.
type Sighting struct {
	// ID is the device identifier (MAC-like), uppercase.
	ID string
	// Name is the advertised display name, "Unknown" when absent.
	Name string
	// Signal is the received signal strength in dBm.
	Signal int
	// SeenAt is when the snapshot containing this sighting was taken.
	SeenAt time.Time
}

// Scanner produces snapshots of currently-visible devices.
type Scanner interface {
	// Scan returns the devices visible within the timeout.
	// A transient radio or timeout problem returns an error and no snapshot.
	Scan(ctx context.Context, timeout time.Duration) ([]Sighting, error)
}

// Fake is a scripted Scanner for tests. Each call consumes the next step;
// when steps are exhausted the last one repeats.
type Fake struct {
	// Steps are the scripted snapshots or errors, consumed in order.
	Steps []FakeStep

	index int
}

// FakeStep is one scripted scan result.
type FakeStep struct {
	// Sightings is the snapshot to return.
	Sightings []Sighting
	// Err, if set, is returned instead of the snapshot.
	Err error
}

// Scan returns the next scripted result.
func (f *Fake) Scan(context.Context, time.Duration) ([]Sighting, error) {
	if len(f.Steps) == 0 {
		return nil, nil
	}

	step := f.Steps[f.index]
	if f.index < len(f.Steps)-1 {
		f.index++
	}

	return step.Sightings, step.Err
}
