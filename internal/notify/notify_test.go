package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSender captures smtp.SendMail calls for inspection.
type fakeSender struct {
	calls []sentMail
	err   error
}

type sentMail struct {
	to  []string
	msg string
}

func (f *fakeSender) send(_ string, _ smtp.Auth, _ string, to []string, msg []byte) error {
	f.calls = append(f.calls, sentMail{to: to, msg: string(msg)})

	return f.err
}

// testAlert builds a representative alert for delivery tests.
func testAlert() Alert {
	return Alert{
		At:          time.Date(2024, 1, 1, 3, 0, 45, 0, time.UTC),
		SiteID:      "remote-site-002",
		EpisodeID:   "ep-1",
		DeviceCount: 2,
		Devices:     []string{"Phone (AA:BB:CC:DD:EE:FF)", "Watch (11:22:33:44:55:66)"},
	}
}

// failingNotifier always fails delivery.
type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }

func (failingNotifier) Send(context.Context, Alert) error { return errors.New("boom") }

// countingNotifier records deliveries.
type countingNotifier struct{ sent int }

func (c *countingNotifier) Name() string { return "counting" }

func (c *countingNotifier) Send(context.Context, Alert) error {
	c.sent++

	return nil
}

// TestFanout_ChannelFailuresAreIsolated asserts one failing channel does not
// stop the others.
func TestFanout_ChannelFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	counting := &countingNotifier{}
	notifiers := []Notifier{failingNotifier{}, counting, &countingNotifier{}}

	outcomes := map[string]error{}
	delivered := Fanout(context.Background(), notifiers, testAlert(), func(channel string, err error) {
		outcomes[channel] = err
	})

	require.Equal(t, 2, delivered)
	require.Equal(t, 1, counting.sent)
	require.Error(t, outcomes["failing"])
	require.NoError(t, outcomes["counting"])
}

// TestEmailNotifier_SendBuildsMessage verifies recipients and body content.
func TestEmailNotifier_SendBuildsMessage(t *testing.T) {
	t.Parallel()

	n, err := NewEmailNotifier(
		SMTPConfig{Host: "smtp.example.com", Port: 587, Sender: "alerts@example.com"},
		"Security Alert",
		[]string{"owner@example.com", " ", "backup@example.com"},
	)
	require.NoError(t, err)

	sender := &fakeSender{}
	n.send = sender.send

	require.NoError(t, n.Send(context.Background(), testAlert()))
	require.Len(t, sender.calls, 1)
	require.Equal(t, []string{"owner@example.com", "backup@example.com"}, sender.calls[0].to)
	require.Contains(t, sender.calls[0].msg, "Subject: Security Alert")
	require.Contains(t, sender.calls[0].msg, "Devices detected: 2")
	require.Contains(t, sender.calls[0].msg, "- Phone (AA:BB:CC:DD:EE:FF)")
}

// TestEmailNotifier_RequiresRecipients rejects an empty recipient list.
func TestEmailNotifier_RequiresRecipients(t *testing.T) {
	t.Parallel()

	_, err := NewEmailNotifier(SMTPConfig{}, "", []string{" ", ""})
	require.ErrorIs(t, err, errNoRecipients)
}

// TestVoiceNotifier_CallsEveryNumber verifies one gateway mail per number and
// message truncation to the gateway limit.
func TestVoiceNotifier_CallsEveryNumber(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("intruder alert ", 10)

	n, err := NewVoiceNotifier(
		SMTPConfig{Host: "smtp.example.com", Port: 587, Sender: "alerts@example.com"},
		long,
		[]string{"+15550001111", "+15550002222"},
	)
	require.NoError(t, err)
	require.Len(t, n.message, voiceMessageLimit)

	sender := &fakeSender{}
	n.send = sender.send

	require.NoError(t, n.Send(context.Background(), testAlert()))
	require.Len(t, sender.calls, 2)
	require.Equal(t, []string{"+15550001111@voice.clicksend.com"}, sender.calls[0].to)
	require.Equal(t, []string{"+15550002222@voice.clicksend.com"}, sender.calls[1].to)
}

// TestVoiceNotifier_AggregatesFailuresAfterAllAttempts keeps calling remaining numbers after a failure.
func TestVoiceNotifier_AggregatesFailuresAfterAllAttempts(t *testing.T) {
	t.Parallel()

	n, err := NewVoiceNotifier(
		SMTPConfig{Host: "smtp.example.com", Port: 587, Sender: "alerts@example.com"},
		"alert",
		[]string{"+15550001111", "+15550002222"},
	)
	require.NoError(t, err)

	sender := &fakeSender{err: errors.New("gateway down")}
	n.send = sender.send

	err = n.Send(context.Background(), testAlert())
	require.Error(t, err)
	// Both numbers were still attempted.
	require.Len(t, sender.calls, 2)
}

// TestAlertBody covers the rendered message body.
func TestAlertBody(t *testing.T) {
	t.Parallel()

	body := testAlert().Body()
	require.Contains(t, body, "INTRUSION DETECTED at 2024-01-01 03:00:45")
	require.Contains(t, body, "Site: remote-site-002")
	require.Contains(t, body, "- Watch (11:22:33:44:55:66)")
}
