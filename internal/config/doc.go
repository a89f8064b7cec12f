// Package config defines installation settings used by the sentinel binaries
// and provides helpers to load, validate and save them in YAML format.
//
// The Settings type holds paths, hardware and notification parameters that
// are fixed for an installation. Runtime state shared between the binaries
// lives in the arm document, not here.
package config
