package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrewdarr/bt-sentinel/internal/notify"
)

// TestValidate checks required fields and default filling for Settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing scan command.
	settings := new(Settings)

	err := Validate(settings)
	require.Error(t, err)

	// Recipients without a mail relay.
	settings = &Settings{
		ScanCommand:     "hcitool scan --flush",
		EmailRecipients: []string{"ops@example.com"},
	}

	err = Validate(settings)
	require.Error(t, err)

	// Okay, defaults filled.
	settings = &Settings{
		ScanCommand: "hcitool scan --flush",
	}

	err = Validate(settings)
	require.NoError(t, err)
	require.Equal(t, DefaultArmStateFilename, settings.ArmStateFile)
	require.Equal(t, DefaultScanTimeout, settings.ScanTimeout)
	require.Equal(t, DefaultPollInterval, settings.PollInterval)
	require.Equal(t, DefaultGraceDelay, settings.GraceDelay)
	require.Equal(t, DefaultWorkerSignature, settings.WorkerSignature)
	require.Equal(t, DefaultVoiceMessage, settings.VoiceMessage)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Settings{
		SiteID:          "cabin",
		ScanCommand:     "hcitool scan --flush",
		ScanTimeout:     15 * time.Second,
		GPIOChip:        "gpiochip0",
		GPIOPin:         17,
		GPIOActiveHigh:  true,
		WorkerCommand:   "/usr/local/bin/sentinel-monitor",
		EmailRecipients: []string{"ops@example.com"},
		SMTP: notify.SMTPConfig{
			Host:   "smtp.example.com",
			Port:   587,
			Sender: "sentinel@example.com",
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.SiteID, loaded.SiteID)
	require.Equal(t, settings.ScanCommand, loaded.ScanCommand)
	require.Equal(t, settings.GPIOPin, loaded.GPIOPin)
	require.Equal(t, settings.SMTP.Host, loaded.SMTP.Host)

	// Restricted permissions, the file may hold credentials.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadMissingFile ensures a useful error when the path does not exist.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
