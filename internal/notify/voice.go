package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
)

// voiceGatewayDomain is the email-to-voice gateway: a message mailed to
// <phone>@voice.clicksend.com is read out as a call to that number.
const voiceGatewayDomain = "voice.clicksend.com"

// voiceMessageLimit is the gateway's spoken-message length cap.
const voiceMessageLimit = 60

// VoiceNotifier places alert calls through the email-to-voice gateway.
// Each configured phone number gets its own call; one failed call does not
// stop the remaining numbers.
type VoiceNotifier struct {
	smtp    SMTPConfig
	message string
	phones  []string

	send sendFunc
}

// errNoPhones is returned when the voice channel has no numbers to call.
var errNoPhones = errors.New("no phone numbers configured")

// NewVoiceNotifier creates the voice channel. Blank numbers are dropped and
// the spoken message is truncated to the gateway limit.
func NewVoiceNotifier(smtpConfig SMTPConfig, message string, phones []string) (*VoiceNotifier, error) {
	cleaned := cleanList(phones)
	if len(cleaned) == 0 {
		return nil, errNoPhones
	}

	if message == "" {
		message = "Security alert detected"
	}

	if len(message) > voiceMessageLimit {
		message = message[:voiceMessageLimit]
	}

	return &VoiceNotifier{
		smtp:    smtpConfig,
		message: message,
		phones:  cleaned,
		send:    smtp.SendMail,
	}, nil
}

// Name identifies the channel in logs.
func (n *VoiceNotifier) Name() string {
	return "voice"
}

// Send places one call per configured number. The error aggregates failed
// numbers but only after every number was attempted.
func (n *VoiceNotifier) Send(_ context.Context, _ Alert) error {
	auth := smtp.PlainAuth("", n.smtp.Sender, n.smtp.Password, n.smtp.Host)

	var failed []error

	for _, phone := range n.phones {
		recipient := phone + "@" + voiceGatewayDomain
		message := buildMessage(n.smtp.Sender, []string{recipient}, "Voice Alert", n.message)

		if err := n.send(n.smtp.Addr(), auth, n.smtp.Sender, []string{recipient}, message); err != nil {
			failed = append(failed, fmt.Errorf("call %s: %w", phone, err))
		}
	}

	return errors.Join(failed...)
}
