// Package config turns configuration into typed values.
//
// ParsePort validates the untyped per-port mapping a port receives in its
// ConfigUpdated message. Load reads the daemon settings file (YAML) that
// lists the ports to start and where their events go.
package config
