//go:build !linux

package relay

import "errors"

// errNoGPIO is returned on platforms without the Linux GPIO character device.
var errNoGPIO = errors.New("gpio relay requires linux")

// GPIORelay is unavailable off Linux; construction always fails and callers
// fall back to the Nop relay.
type GPIORelay struct{}

// NewGPIORelay always fails on this platform.
func NewGPIORelay(string, int, bool) (*GPIORelay, error) {
	return nil, errNoGPIO
}

// On is unreachable on this platform.
func (*GPIORelay) On() error { return errNoGPIO }

// Off is unreachable on this platform.
func (*GPIORelay) Off() error { return errNoGPIO }

// Close is unreachable on this platform.
func (*GPIORelay) Close() error { return errNoGPIO }
