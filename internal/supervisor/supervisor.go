// Package supervisor abstracts the monitoring worker's process lifecycle.
//
// The reconciliation daemon only ever asks three questions: is the worker
// running, start it, stop it. A requested start or stop is never assumed to
// have succeeded; callers re-verify with IsRunning after a grace delay.
package supervisor

import (
	"context"
)

// Supervisor reports and drives the monitoring worker's running state.
type Supervisor interface {
	// IsRunning reports whether a process matching the worker signature exists.
	IsRunning(ctx context.Context) (bool, error)
	// Start launches the worker. Success of the launch request does not
	// guarantee the worker is running.
	Start(ctx context.Context) error
	// Stop signals every process matching the worker signature.
	Stop(ctx context.Context) error
}

// Fake is a scripted Supervisor for tests.
type Fake struct {
	// Running is the state reported by IsRunning.
	Running bool
	// StartErr, if set, is returned by Start.
	StartErr error
	// StopErr, if set, is returned by Stop.
	StopErr error
	// StartSticks controls whether a successful Start flips Running.
	// Leave false to simulate a worker that fails to come up.
	StartSticks bool
	// StopSticks controls whether a successful Stop flips Running.
	StopSticks bool

	// Starts counts Start invocations.
	Starts int
	// Stops counts Stop invocations.
	Stops int
}

// IsRunning returns the scripted running state.
func (f *Fake) IsRunning(context.Context) (bool, error) {
	return f.Running, nil
}

// Start records the call and optionally flips the running state.
func (f *Fake) Start(context.Context) error {
	f.Starts++

	if f.StartErr != nil {
		return f.StartErr
	}

	if f.StartSticks {
		f.Running = true
	}

	return nil
}

// Stop records the call and optionally flips the running state.
func (f *Fake) Stop(context.Context) error {
	f.Stops++

	if f.StopErr != nil {
		return f.StopErr
	}

	if f.StopSticks {
		f.Running = false
	}

	return nil
}
