//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIORelay drives a relay board through a GPIO output line.
type GPIORelay struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	// activeHigh selects which logic level energizes the relay coil.
	activeHigh bool
}

// NewGPIORelay opens the chip and requests the pin as an output,
// initialized to the de-energized level.
func NewGPIORelay(chipName string, pin int, activeHigh bool) (*GPIORelay, error) {
	if chipName == "" {
		chipName = "gpiochip0"
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &GPIORelay{chip: chip, activeHigh: activeHigh}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(r.level(false)))
	if err != nil {
		_ = chip.Close()

		return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
	}

	r.line = line

	return r, nil
}

// On energizes the relay.
func (r *GPIORelay) On() error {
	if err := r.line.SetValue(r.level(true)); err != nil {
		return fmt.Errorf("set relay on: %w", err)
	}

	return nil
}

// Off de-energizes the relay.
func (r *GPIORelay) Off() error {
	if err := r.line.SetValue(r.level(false)); err != nil {
		return fmt.Errorf("set relay off: %w", err)
	}

	return nil
}

// Close de-energizes the relay and releases the line and chip.
func (r *GPIORelay) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.SetValue(r.level(false)); err != nil {
			errs = append(errs, fmt.Errorf("reset relay: %w", err))
		}

		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay line: %w", err))
		}
	}

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gpio chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close relay: %v", errs)
	}

	return nil
}

// level maps a logical state to the wire level for this board's polarity.
func (r *GPIORelay) level(energized bool) int {
	if energized == r.activeHigh {
		return 1
	}

	return 0
}
