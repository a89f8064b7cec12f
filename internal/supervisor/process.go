package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/mitchellh/go-ps"

	"github.com/andrewdarr/bt-sentinel/internal/logger"
)

// ProcessSupervisor manages the worker through the OS process table.
// The worker is identified by a stable executable-name signature and
// started through a shell command in a known working directory, matching
// how an operator would run it by hand.
type ProcessSupervisor struct {
	// signature is the executable-name fragment identifying worker processes.
	signature string
	// command is the shell command that launches the worker.
	command string
	// workDir is the directory the worker is launched from.
	workDir string
}

var (
	// errNoSignature is returned when the worker signature is empty.
	errNoSignature = errors.New("worker process signature must be provided")
	// errNoCommand is returned when the start command is empty.
	errNoCommand = errors.New("worker start command must be provided")
)

// NewProcessSupervisor creates a supervisor for the given worker signature and start command.
func NewProcessSupervisor(signature, command, workDir string) (*ProcessSupervisor, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, errNoSignature
	}

	if strings.TrimSpace(command) == "" {
		return nil, errNoCommand
	}

	return &ProcessSupervisor{
		signature: signature,
		command:   command,
		workDir:   workDir,
	}, nil
}

// IsRunning scans the process table for the worker signature, excluding this process.
func (s *ProcessSupervisor) IsRunning(_ context.Context) (bool, error) {
	matches, err := s.findWorkers()
	if err != nil {
		return false, err
	}

	return len(matches) > 0, nil
}

// Start launches the worker detached through the shell.
// The caller must re-verify running state; a successful launch request
// says nothing about whether the worker stayed up.
func (s *ProcessSupervisor) Start(ctx context.Context) error {
	cmd := exec.Command("/bin/sh", "-c", s.command)
	cmd.Dir = s.workDir

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	logger.InfoKV(ctx, "Worker launch requested", "pid", cmd.Process.Pid, "command", s.command)

	// Detach so the worker is not tied to this process's lifetime.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release worker process: %w", err)
	}

	return nil
}

// Stop sends SIGTERM to every process matching the worker signature.
func (s *ProcessSupervisor) Stop(ctx context.Context) error {
	matches, err := s.findWorkers()
	if err != nil {
		return err
	}

	for _, pid := range matches {
		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find worker process %d: %w", pid, err)
		}

		if err = process.Signal(syscall.SIGTERM); err != nil {
			// The process may have exited between enumeration and signaling.
			logger.WarnKV(ctx, "Failed to signal worker", "pid", pid, "error", err)

			continue
		}

		logger.InfoKV(ctx, "Worker signaled to stop", "pid", pid)
	}

	return nil
}

// findWorkers returns the PIDs of processes whose executable name contains
// the worker signature, excluding this process.
func (s *ProcessSupervisor) findWorkers() ([]int, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var (
		matches []int
		selfPID = os.Getpid()
	)

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if strings.Contains(process.Executable(), s.signature) {
			matches = append(matches, process.Pid())
		}
	}

	return matches, nil
}
