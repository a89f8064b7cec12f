package scanner

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/andrewdarr/bt-sentinel/internal/logger"
)

// ExemptSet holds device identifiers belonging to the monitoring host itself.
// It is computed once at startup and immutable for the life of the process.
type ExemptSet map[string]struct{}

// hciInterfaces are the local radio interfaces inspected for own addresses.
var hciInterfaces = []string{"hci0", "hci1"}

// NewExemptSet builds the set from explicit identifiers plus the host's own
// radio addresses. Failures to inspect an interface are logged and skipped;
// a host without that radio simply contributes nothing.
func NewExemptSet(ctx context.Context, extra []string) ExemptSet {
	set := make(ExemptSet, len(extra)+len(hciInterfaces))

	for _, id := range extra {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			set[id] = struct{}{}
		}
	}

	for _, hci := range hciInterfaces {
		mac, err := localRadioAddress(ctx, hci)
		if err != nil {
			logger.DebugKV(ctx, "No local radio address", "interface", hci, "error", err)

			continue
		}

		if mac != "" {
			set[mac] = struct{}{}
			logger.InfoKV(ctx, "Ignoring local radio", "interface", hci, "address", mac)
		}
	}

	return set
}

// Contains reports whether the identifier belongs to the host.
func (e ExemptSet) Contains(id string) bool {
	_, ok := e[strings.ToUpper(id)]

	return ok
}

// Filter returns the sightings that do not belong to the host.
func (e ExemptSet) Filter(sightings []Sighting) []Sighting {
	if len(e) == 0 {
		return sightings
	}

	filtered := make([]Sighting, 0, len(sightings))

	for _, s := range sightings {
		if !e.Contains(s.ID) {
			filtered = append(filtered, s)
		}
	}

	return filtered
}

// addressQueryTimeout bounds the hciconfig invocation at startup.
const addressQueryTimeout = 5 * time.Second

// localRadioAddress extracts the interface's own address from hciconfig output.
func localRadioAddress(ctx context.Context, hci string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, addressQueryTimeout)
	defer cancel()

	output, err := exec.CommandContext(runCtx, "hciconfig", hci).Output()
	if err != nil {
		return "", err
	}

	return parseRadioAddress(string(output)), nil
}

// parseRadioAddress finds the "BD Address:" field in hciconfig output.
func parseRadioAddress(output string) string {
	for _, line := range strings.Split(output, "\n") {
		_, rest, found := strings.Cut(line, "BD Address: ")
		if !found {
			continue
		}

		mac, _, _ := strings.Cut(strings.TrimSpace(rest), " ")

		return strings.ToUpper(mac)
	}

	return ""
}
