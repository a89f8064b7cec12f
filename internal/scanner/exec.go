package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ExecScanner runs an external scan command once per cycle.
//
// The command is expected to print one visible device per line as
// "ID<TAB>NAME<TAB>RSSI"; NAME and RSSI are optional. The command's exit
// status or a timeout surfaces as a transient scan error.
type ExecScanner struct {
	// command is the shell command producing the snapshot.
	command string
}

// defaultSignal is reported when the command omits a signal reading.
const defaultSignal = -100

// NewExecScanner creates a scanner that shells out to the provided command.
func NewExecScanner(command string) *ExecScanner {
	return &ExecScanner{command: command}
}

// Scan runs the command and parses its output into a snapshot.
func (s *ExecScanner) Scan(ctx context.Context, timeout time.Duration) ([]Sighting, error) {
	runCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := exec.CommandContext(runCtx, "/bin/sh", "-c", s.command).Output()
	if err != nil {
		return nil, fmt.Errorf("run scan command: %w", err)
	}

	return parseSightings(string(output), time.Now()), nil
}

// parseSightings converts scan command output into sightings.
// Malformed lines are skipped rather than failing the whole snapshot.
func parseSightings(output string, seenAt time.Time) []Sighting {
	var sightings []Sighting

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")

		id := strings.ToUpper(strings.TrimSpace(fields[0]))
		if id == "" {
			continue
		}

		sighting := Sighting{
			ID:     id,
			Name:   "Unknown",
			Signal: defaultSignal,
			SeenAt: seenAt,
		}

		if len(fields) > 1 && strings.TrimSpace(fields[1]) != "" {
			sighting.Name = strings.TrimSpace(fields[1])
		}

		if len(fields) > 2 {
			if rssi, err := strconv.Atoi(strings.TrimSpace(fields[2])); err == nil {
				sighting.Signal = rssi
			}
		}

		sightings = append(sightings, sighting)
	}

	return sightings
}
