// Package config provides configuration helpers for peer commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Default server configuration.
const (
	DefaultPort     = "8000"
	DefaultDataDir  = "data"
	DefaultLogLevel = "info"
)

// Env returns the value of the named environment variable,
// falling back to def if unset.
func Env(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// EnvInt returns the named environment variable parsed as an int,
// falling back to def if unset or unparseable.
func EnvInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvFloat returns the named environment variable parsed as a float64,
// falling back to def if unset or unparseable.
func EnvFloat(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// EnvDuration returns the named environment variable parsed as a duration,
// falling back to def if unset or unparseable.
func EnvDuration(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Port returns the HTTP listen port from PEER_PORT.
func Port() string {
	return Env("PEER_PORT", DefaultPort)
}

// DataDir returns the persistence root from PEER_DATA_DIR.
func DataDir() string {
	return Env("PEER_DATA_DIR", DefaultDataDir)
}

// LogLevel returns the log level from PEER_LOG_LEVEL.
func LogLevel() string {
	return Env("PEER_LOG_LEVEL", DefaultLogLevel)
}
