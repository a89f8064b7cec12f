package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewProcessSupervisor_Validation rejects empty signatures and commands.
func TestNewProcessSupervisor_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewProcessSupervisor("", "run-worker", "/tmp")
	require.ErrorIs(t, err, errNoSignature)

	_, err = NewProcessSupervisor("sentinel-monitor", "  ", "/tmp")
	require.ErrorIs(t, err, errNoCommand)

	s, err := NewProcessSupervisor("sentinel-monitor", "./sentinel-monitor", "/tmp")
	require.NoError(t, err)
	require.NotNil(t, s)
}

// TestProcessSupervisor_IsRunningUnknownSignature scans the live process
// table for a signature that cannot exist.
func TestProcessSupervisor_IsRunningUnknownSignature(t *testing.T) {
	t.Parallel()

	s, err := NewProcessSupervisor("definitely-not-a-real-process-name", "true", "")
	require.NoError(t, err)

	running, err := s.IsRunning(context.Background())
	require.NoError(t, err)
	require.False(t, running)
}

// TestFakeSupervisor covers the scripted state transitions used by daemon tests.
func TestFakeSupervisor(t *testing.T) {
	t.Parallel()

	fake := &Fake{StartSticks: true, StopSticks: true}

	running, err := fake.IsRunning(context.Background())
	require.NoError(t, err)
	require.False(t, running)

	require.NoError(t, fake.Start(context.Background()))
	require.True(t, fake.Running)
	require.Equal(t, 1, fake.Starts)

	require.NoError(t, fake.Stop(context.Background()))
	require.False(t, fake.Running)
	require.Equal(t, 1, fake.Stops)

	// A non-sticking start simulates a worker that fails to come up.
	stubborn := &Fake{}
	require.NoError(t, stubborn.Start(context.Background()))
	require.False(t, stubborn.Running)
}
