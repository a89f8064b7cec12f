// Package daemon implements the reconciliation loop: it resolves the
// effective arm state from the shared document on every cycle and converges
// the monitoring worker process to it, starting or stopping it as needed.
package daemon
