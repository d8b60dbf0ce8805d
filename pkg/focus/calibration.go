package focus

import (
	"math"
	"time"

	"github.com/peerhq/peer/pkg/vision"
)

// Baseline is the reference posture captured at calibration time.
// It is the zero-point for deviation measurement: the nose position
// relative to the shoulder midpoint, plus the shoulder-line tilt.
// Immutable once set; replaced wholesale on recalibration.
type Baseline struct {
	// NoseOffsetX/Y is the nose position minus the shoulder midpoint,
	// in normalized image units.
	NoseOffsetX float64 `json:"nose_offset_x"`
	NoseOffsetY float64 `json:"nose_offset_y"`

	// ShoulderTilt is the shoulder-line angle in radians.
	ShoulderTilt float64 `json:"shoulder_tilt"`

	CapturedAt time.Time `json:"captured_at"`
	Samples    int       `json:"samples"`
}

// posture is the per-frame posture measurement the baseline averages
// and the classifier compares against.
type posture struct {
	offsetX, offsetY float64
	tilt             float64
}

// measurePosture extracts the nose-to-shoulder-midpoint vector from a
// frame. Returns false when any required landmark is missing or below
// the confidence floor.
func measurePosture(frame vision.Frame, minConfidence float64) (posture, bool) {
	nose, ok := frame.Landmark(vision.LandmarkNose, minConfidence)
	if !ok {
		return posture{}, false
	}
	left, ok := frame.Landmark(vision.LandmarkLeftShoulder, minConfidence)
	if !ok {
		return posture{}, false
	}
	right, ok := frame.Landmark(vision.LandmarkRightShoulder, minConfidence)
	if !ok {
		return posture{}, false
	}

	midX := (left.X + right.X) / 2
	midY := (left.Y + right.Y) / 2

	return posture{
		offsetX: nose.X - midX,
		offsetY: nose.Y - midY,
		tilt:    math.Atan2(right.Y-left.Y, right.X-left.X),
	}, true
}

// Calibrator accumulates a fixed window of frames and averages them
// into a Baseline, smoothing out single-frame landmark jitter.
type Calibrator struct {
	window  int
	minConf float64

	sumX, sumY, sumTilt float64
	count               int
}

// NewCalibrator creates a calibrator that needs window frames.
func NewCalibrator(window int, minConfidence float64) *Calibrator {
	if window < 1 {
		window = 1
	}
	return &Calibrator{window: window, minConf: minConfidence}
}

// Add folds one frame into the window. It returns the number of frames
// still needed, or ErrInsufficientLandmarks when the frame's landmarks
// are unusable (the caller retries with a new frame; progress so far is
// kept).
func (c *Calibrator) Add(frame vision.Frame) (remaining int, err error) {
	p, ok := measurePosture(frame.Sanitize(), c.minConf)
	if !ok {
		return c.window - c.count, ErrInsufficientLandmarks
	}

	c.sumX += p.offsetX
	c.sumY += p.offsetY
	c.sumTilt += p.tilt
	c.count++

	return c.window - c.count, nil
}

// Done reports whether the window is full.
func (c *Calibrator) Done() bool {
	return c.count >= c.window
}

// Baseline returns the averaged baseline. It fails with
// ErrInsufficientLandmarks until the window is full.
func (c *Calibrator) Baseline() (*Baseline, error) {
	if !c.Done() {
		return nil, ErrInsufficientLandmarks
	}
	n := float64(c.count)
	return &Baseline{
		NoseOffsetX:  c.sumX / n,
		NoseOffsetY:  c.sumY / n,
		ShoulderTilt: c.sumTilt / n,
		CapturedAt:   time.Now(),
		Samples:      c.count,
	}, nil
}
