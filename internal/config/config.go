package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrewdarr/bt-sentinel/internal/notify"
)

// Settings holds installation parameters shared by the sentinel binaries.
// Runtime tunables that both the worker and the controller change while the
// system is running (arm state, trigger threshold, scan interval) live in the
// shared arm document instead.
type Settings struct {
	// SiteID identifies this installation in alerts and logs.
	SiteID string `yaml:"site_id"`
	// LogLevel is the minimum level emitted by the logger.
	LogLevel string `yaml:"log_level"`
	// ArmStateFile is the path to the shared JSON arm document.
	ArmStateFile string `yaml:"arm_state_file"`
	// AuditDatabase is the path to the SQLite audit log; empty disables auditing.
	AuditDatabase string `yaml:"audit_database"`

	// ScanCommand is the shell command producing one device sighting per line.
	ScanCommand string `yaml:"scan_command"`
	// ScanTimeout bounds a single scan invocation.
	ScanTimeout time.Duration `yaml:"scan_timeout"`
	// ExemptDevices lists additional device identifiers to ignore, on top of
	// the local radio addresses discovered at startup.
	ExemptDevices []string `yaml:"exempt_devices"`

	// GPIOChip is the GPIO character device driving the alarm output.
	GPIOChip string `yaml:"gpio_chip"`
	// GPIOPin is the line offset of the alarm output on GPIOChip.
	GPIOPin int `yaml:"gpio_pin"`
	// GPIOActiveHigh maps the energized state to a high line level.
	GPIOActiveHigh bool `yaml:"gpio_active_high"`
	// AlarmDuration turns the alarm off this long after triggering; zero
	// keeps it on until the detection clears.
	AlarmDuration time.Duration `yaml:"alarm_duration"`

	// WorkerSignature is the executable name fragment identifying monitor
	// processes, matched against the process table.
	WorkerSignature string `yaml:"worker_signature"`
	// WorkerCommand is the shell command the daemon runs to start a monitor.
	WorkerCommand string `yaml:"worker_command"`
	// WorkerDirectory is the working directory for started monitors.
	WorkerDirectory string `yaml:"worker_directory"`
	// PollInterval is the delay between reconciliation cycles.
	PollInterval time.Duration `yaml:"poll_interval"`
	// GraceDelay is the wait before re-checking a started or stopped worker.
	GraceDelay time.Duration `yaml:"grace_delay"`

	// SMTP holds the mail relay used for email and voice alerts.
	SMTP notify.SMTPConfig `yaml:"smtp"`
	// EmailRecipients receive intrusion alert mails.
	EmailRecipients []string `yaml:"email_recipients"`
	// VoicePhones receive text-to-speech intrusion calls.
	VoicePhones []string `yaml:"voice_phones"`
	// VoiceMessage is spoken on intrusion calls.
	VoiceMessage string `yaml:"voice_message"`

	// MQTTBroker is the home base broker URI; empty disables MQTT alerts.
	MQTTBroker string `yaml:"mqtt_broker"`
	// MQTTTopic is the topic intrusion alerts are published to.
	MQTTTopic string `yaml:"mqtt_topic"`

	// MetricsAddress serves Prometheus metrics; empty disables the endpoint.
	MetricsAddress string `yaml:"metrics_address"`
}

const (
	// DefaultConfigFilename is the default filename for installation settings.
	DefaultConfigFilename = "bt-sentinel-settings.yaml"

	// DefaultArmStateFilename is the default filename for the arm document.
	DefaultArmStateFilename = "bt-sentinel-state.json"

	// DefaultScanTimeout is the default bound on one scan invocation.
	DefaultScanTimeout = 10 * time.Second

	// DefaultPollInterval is the default delay between reconciliation cycles.
	DefaultPollInterval = 10 * time.Second

	// DefaultGraceDelay is the default wait before re-checking worker state.
	DefaultGraceDelay = 2 * time.Second

	// DefaultWorkerSignature is the default monitor executable name fragment.
	DefaultWorkerSignature = "sentinel-monitor"

	// DefaultVoiceMessage is the default text-to-speech alert.
	DefaultVoiceMessage = "Security alert. Unknown wireless device detected on the premises."

	// DefaultFilePermissions is the default permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errSettingsAreNotSet is returned when a nil settings value is provided.
	errSettingsAreNotSet = errors.New("settings are not set")
	// errScanCommandRequired is returned when the scan command is missing.
	errScanCommandRequired = errors.New("scan command must be provided")
	// errRecipientsWithoutSMTP is returned when alert recipients are
	// configured but no mail relay is.
	errRecipientsWithoutSMTP = errors.New("alert recipients require an SMTP host")
)

// Load reads settings from the provided path and validates essential fields.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(contents, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save writes settings to the provided path.
func Save(path string, settings *Settings) error {
	if settings == nil {
		return errSettingsAreNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(settings); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold the SMTP password.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Settings) error {
	if settings == nil {
		return errSettingsAreNotSet
	}

	if settings.ScanCommand == "" {
		return errScanCommandRequired
	}

	if settings.SMTP.Host == "" && (len(settings.EmailRecipients) > 0 || len(settings.VoicePhones) > 0) {
		return errRecipientsWithoutSMTP
	}

	if settings.ArmStateFile == "" {
		settings.ArmStateFile = DefaultArmStateFilename
	}

	if settings.ScanTimeout <= 0 {
		settings.ScanTimeout = DefaultScanTimeout
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.GraceDelay <= 0 {
		settings.GraceDelay = DefaultGraceDelay
	}

	if settings.WorkerSignature == "" {
		settings.WorkerSignature = DefaultWorkerSignature
	}

	if settings.VoiceMessage == "" {
		settings.VoiceMessage = DefaultVoiceMessage
	}

	return nil
}
