// Package relay drives the physical alarm output with hardware abstraction.
// The real implementation uses the Linux GPIO character device; a fake
// records transitions for tests and a no-op stands in when hardware setup
// fails so detection keeps running in a degraded mode.
package relay

// Relay switches the physical alarm output.
type Relay interface {
	// On energizes the alarm output.
	On() error
	// Off de-energizes the alarm output.
	Off() error
	// Close releases hardware resources, de-energizing first.
	Close() error
}

// Fake is a test double recording output transitions.
type Fake struct {
	// Active is the current output state.
	Active bool
	// OnCalls counts On invocations.
	OnCalls int
	// OffCalls counts Off invocations.
	OffCalls int
	// Closed tracks whether Close was called.
	Closed bool
	// OnErr, if set, is returned by On.
	OnErr error
}

// On records the activation.
func (f *Fake) On() error {
	if f.OnErr != nil {
		return f.OnErr
	}

	f.OnCalls++
	f.Active = true

	return nil
}

// Off records the deactivation.
func (f *Fake) Off() error {
	f.OffCalls++
	f.Active = false

	return nil
}

// Close marks the relay closed.
func (f *Fake) Close() error {
	f.Active = false
	f.Closed = true

	return nil
}

// Nop is a relay without hardware: every operation succeeds and does nothing.
// It keeps the system running when GPIO setup fails at startup.
type Nop struct{}

// On does nothing.
func (Nop) On() error { return nil }

// Off does nothing.
func (Nop) Off() error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
