// Package config loads and validates the palisade configuration. YAML is the
// source of truth; defaults fill anything the file leaves out, and
// PALISADE_* environment variables override both.
package config
