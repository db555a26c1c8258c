// Package config names the environment variables blobot commands read and
// the defaults they fall back to. The CLI binds each variable to its flag.
package config

// Environment variables bound to command flags.
const (
	EnvPort      = "BLOBOT_PORT"
	EnvLogLevel  = "BLOBOT_LOG_LEVEL"
	EnvDuration  = "BLOBOT_DURATION" // Go duration, e.g. "500ms"
	EnvFrameRate = "BLOBOT_FRAME_RATE"
	EnvStaticDir = "BLOBOT_STATIC_DIR"
	EnvServerURL = "BLOBOT_URL"
)

// Defaults used when neither flag nor environment is set.
const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultServerURL = "http://localhost:8080"
)
