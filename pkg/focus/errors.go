package focus

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrInsufficientLandmarks is returned when a calibration frame does
	// not contain the required landmarks with enough confidence.
	ErrInsufficientLandmarks = errors.New("focus: insufficient landmarks for calibration")

	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("focus: session not found")

	// ErrStaleSession is returned when operating on an ended session.
	ErrStaleSession = errors.New("focus: session already ended")

	// ErrAlreadyActive is returned when starting a session for a user
	// who already has one in flight.
	ErrAlreadyActive = errors.New("focus: user already has an active session")

	// ErrNotCalibrated is returned when activating a session that has
	// no calibration baseline yet.
	ErrNotCalibrated = errors.New("focus: session has no calibration baseline")

	// ErrNotActive is returned when submitting frames to a session that
	// is not in the active state.
	ErrNotActive = errors.New("focus: session not active")
)
