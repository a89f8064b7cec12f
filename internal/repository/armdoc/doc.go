// Package armdoc persists the shared arm configuration document.
//
// The document is the only coordination point between the reconciliation
// daemon, the monitoring worker and the control surface: every writer
// performs a whole-document read-modify-write finished by an atomic rename.
// No partial-field merge is attempted across processes; losing a concurrent
// unrelated field update is an accepted trade-off of the design.
package armdoc
