// Package notify fans a confirmed intrusion out to the configured alert
// channels. Channels are independent: one channel's failure is logged and
// never prevents the others from attempting delivery.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/logger"
)

// Alert describes one confirmed intrusion for delivery.
type Alert struct {
	// At is when the intrusion was confirmed.
	At time.Time
	// SiteID identifies the monitored site in messages.
	SiteID string
	// EpisodeID correlates the alert with audit records.
	EpisodeID string
	// DeviceCount is how many distinct devices the episode has seen.
	DeviceCount int
	// Devices holds one display line per device.
	Devices []string
}

// DeviceList renders the device lines as a single block for message bodies.
func (a Alert) DeviceList() string {
	lines := make([]string, 0, len(a.Devices))

	for _, device := range a.Devices {
		lines = append(lines, "- "+device)
	}

	return strings.Join(lines, "\n")
}

// Body renders the standard alert message body.
func (a Alert) Body() string {
	return fmt.Sprintf(
		"INTRUSION DETECTED at %s\n\nSite: %s\nDevices detected: %d\n\nDevice details:\n%s\n",
		a.At.Format("2006-01-02 15:04:05"), a.SiteID, a.DeviceCount, a.DeviceList(),
	)
}

// Notifier delivers an alert over one channel.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// Send delivers the alert; failure is isolated to this channel.
	Send(ctx context.Context, alert Alert) error
}

// Fanout attempts delivery on every channel, logging failures per channel.
// The optional observe callback sees every channel's outcome; it returns how
// many channels succeeded.
func Fanout(ctx context.Context, notifiers []Notifier, alert Alert, observe func(channel string, err error)) int {
	delivered := 0

	for _, n := range notifiers {
		err := n.Send(ctx, alert)

		if observe != nil {
			observe(n.Name(), err)
		}

		if err != nil {
			logger.ErrorKV(ctx, "Alert delivery failed", "channel", n.Name(), "error", err)

			continue
		}

		logger.InfoKV(ctx, "Alert delivered", "channel", n.Name())

		delivered++
	}

	return delivered
}
