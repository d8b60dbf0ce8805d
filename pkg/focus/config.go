// Package focus implements the real-time focus-state engine: per-frame
// classification, episode debouncing, score aggregation and session
// lifecycle. It consumes detection payloads from pkg/vision and never
// performs model inference itself.
package focus

import (
	"time"

	"github.com/peerhq/peer/internal/config"
)

// Config holds all engine tuning parameters. The defaults come from the
// original demo calibration; every value can be overridden via
// environment variables (see FromEnv).
type Config struct {
	// === Calibration ===
	// CalibrationWindow is how many frames are averaged into a baseline.
	CalibrationWindow int `json:"calibration_window"`

	// LandmarkMinConfidence is the floor below which a landmark is
	// treated as undetected.
	LandmarkMinConfidence float64 `json:"landmark_min_confidence"`

	// === Classification ===
	// ObjectMinConfidence is the floor for object detections to count.
	ObjectMinConfidence float64 `json:"object_min_confidence"`

	// PostureThreshold is the maximum deviation of the nose-to-shoulder
	// vector from the baseline before a frame counts as a slouch.
	// Normalized image units.
	PostureThreshold float64 `json:"posture_threshold"`

	// TiltThreshold is the maximum shoulder-line angle deviation from the
	// baseline, in radians, before a frame counts as leaning sideways.
	TiltThreshold float64 `json:"tilt_threshold"`

	// Blacklist labels force a distracted verdict regardless of posture.
	Blacklist []string `json:"blacklist"`

	// Whitelist labels suppress posture evaluation for the frame:
	// looking down at permitted material is not a distraction.
	Whitelist []string `json:"whitelist"`

	// === Debouncing ===
	// ConfirmWindow is how many consecutive frames of the opposite
	// verdict are needed to confirm a state change.
	ConfirmWindow int `json:"confirm_window"`

	// === Scoring ===
	// DecayPerSecond is how fast the score drops while an episode is open.
	DecayPerSecond float64 `json:"decay_per_second"`

	// RecoveryPerSecond is how fast the score climbs back while focused.
	RecoveryPerSecond float64 `json:"recovery_per_second"`

	// ScoreTick is the wall-clock sampling interval for the score
	// timeline, independent of camera frame rate.
	ScoreTick time.Duration `json:"score_tick"`

	// SparklineBuckets is the fixed bucket count for history sparklines.
	SparklineBuckets int `json:"sparkline_buckets"`

	// === Lifecycle ===
	// StreamGrace is how long an active session tolerates no incoming
	// frames before it is ended with its partial data intact.
	StreamGrace time.Duration `json:"stream_grace"`
}

// DefaultConfig returns the demo-tuned engine configuration.
// The original ran at ~30 fps with per-frame score steps of -0.5/+0.1,
// which translate to the per-second rates below.
func DefaultConfig() Config {
	return Config{
		CalibrationWindow:     5,
		LandmarkMinConfidence: 0.5,

		ObjectMinConfidence: 0.4,
		PostureThreshold:    0.24,
		TiltThreshold:       0.35,
		Blacklist:           []string{"cell phone", "mobile phone"},
		Whitelist:           []string{"book", "laptop"},

		ConfirmWindow: 15,

		DecayPerSecond:    15.0,
		RecoveryPerSecond: 3.0,
		ScoreTick:         time.Second,
		SparklineBuckets:  20,

		StreamGrace: 10 * time.Second,
	}
}

// FromEnv returns the default configuration with PEER_* environment
// overrides applied.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.CalibrationWindow = config.EnvInt("PEER_CALIBRATION_WINDOW", cfg.CalibrationWindow)
	cfg.LandmarkMinConfidence = config.EnvFloat("PEER_LANDMARK_MIN_CONFIDENCE", cfg.LandmarkMinConfidence)
	cfg.ObjectMinConfidence = config.EnvFloat("PEER_OBJECT_MIN_CONFIDENCE", cfg.ObjectMinConfidence)
	cfg.PostureThreshold = config.EnvFloat("PEER_POSTURE_THRESHOLD", cfg.PostureThreshold)
	cfg.TiltThreshold = config.EnvFloat("PEER_TILT_THRESHOLD", cfg.TiltThreshold)
	cfg.ConfirmWindow = config.EnvInt("PEER_CONFIRM_WINDOW", cfg.ConfirmWindow)
	cfg.DecayPerSecond = config.EnvFloat("PEER_DECAY_PER_SECOND", cfg.DecayPerSecond)
	cfg.RecoveryPerSecond = config.EnvFloat("PEER_RECOVERY_PER_SECOND", cfg.RecoveryPerSecond)
	cfg.ScoreTick = config.EnvDuration("PEER_SCORE_TICK", cfg.ScoreTick)
	cfg.SparklineBuckets = config.EnvInt("PEER_SPARKLINE_BUCKETS", cfg.SparklineBuckets)
	cfg.StreamGrace = config.EnvDuration("PEER_STREAM_GRACE", cfg.StreamGrace)
	return cfg
}

// Validate checks config values are within usable ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.CalibrationWindow < 1 {
		errors = append(errors, "calibration_window must be at least 1")
	}
	if c.LandmarkMinConfidence < 0 || c.LandmarkMinConfidence > 1 {
		errors = append(errors, "landmark_min_confidence must be between 0 and 1")
	}
	if c.ObjectMinConfidence < 0 || c.ObjectMinConfidence > 1 {
		errors = append(errors, "object_min_confidence must be between 0 and 1")
	}
	if c.PostureThreshold <= 0 {
		errors = append(errors, "posture_threshold must be positive")
	}
	if c.TiltThreshold <= 0 {
		errors = append(errors, "tilt_threshold must be positive")
	}
	if c.ConfirmWindow < 1 {
		errors = append(errors, "confirm_window must be at least 1")
	}
	if c.DecayPerSecond < 0 {
		errors = append(errors, "decay_per_second must not be negative")
	}
	if c.RecoveryPerSecond < 0 {
		errors = append(errors, "recovery_per_second must not be negative")
	}
	if c.ScoreTick <= 0 {
		errors = append(errors, "score_tick must be positive")
	}
	if c.SparklineBuckets < 1 {
		errors = append(errors, "sparkline_buckets must be at least 1")
	}
	if c.StreamGrace <= 0 {
		errors = append(errors, "stream_grace must be positive")
	}

	return errors
}
