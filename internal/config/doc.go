// Package config provides configuration structures and utilities for cardhash.
// It defines the options for manifest generation, the YAML configuration file
// with per-directory overrides, and the XDG locations used for state.
package config
