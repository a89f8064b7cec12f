// Package ctl implements the control surface: manual arm/disarm commands and
// a status view, all working directly on the shared arm document.
package ctl
