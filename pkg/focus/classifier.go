package focus

import (
	"math"
	"time"

	"github.com/peerhq/peer/pkg/vision"
)

// Verdict is the single-frame classification result. Verdicts are
// ephemeral: they feed the debouncer and score keeper and are never
// persisted individually.
type Verdict struct {
	Timestamp  time.Time
	Distracted bool
	Reason     Reason
	Confidence float64
}

// noDetectionConfidence is the confidence assigned to frames with no
// usable signal. Absence of signal is never penalized as misbehavior.
const noDetectionConfidence = 0.2

// Classifier turns one frame's detections into a verdict. It is
// stateless across frames; all temporal smoothing lives in the
// debouncer.
type Classifier struct {
	cfg       Config
	blacklist map[string]bool
	whitelist map[string]bool
}

// NewClassifier creates a classifier from engine config.
func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{
		cfg:       cfg,
		blacklist: make(map[string]bool, len(cfg.Blacklist)),
		whitelist: make(map[string]bool, len(cfg.Whitelist)),
	}
	for _, label := range cfg.Blacklist {
		c.blacklist[label] = true
	}
	for _, label := range cfg.Whitelist {
		c.whitelist[label] = true
	}
	return c
}

// Classify applies the priority chain: blacklist object wins over
// everything, whitelist object suppresses the posture check, then
// posture deviation against the baseline. The order is a tie-break
// policy: the first match decides the frame.
func (c *Classifier) Classify(frame vision.Frame, baseline *Baseline) Verdict {
	frame = frame.Sanitize()

	// 1. Blacklist: a phone in frame is a distraction no matter the posture.
	if conf, ok := c.bestMatch(frame.Objects, c.blacklist); ok {
		return Verdict{
			Timestamp:  frame.Timestamp,
			Distracted: true,
			Reason:     ReasonPhone,
			Confidence: conf,
		}
	}

	// 2. Whitelist: permitted material exempts the posture check.
	// Looking down at a book is not a slouch.
	if conf, ok := c.bestMatch(frame.Objects, c.whitelist); ok {
		return Verdict{
			Timestamp:  frame.Timestamp,
			Reason:     ReasonNone,
			Confidence: conf,
		}
	}

	// 3. Posture deviation against the baseline.
	p, ok := measurePosture(frame, c.cfg.LandmarkMinConfidence)
	if !ok || baseline == nil {
		// No-detection frame: focused with low confidence.
		return Verdict{
			Timestamp:  frame.Timestamp,
			Reason:     ReasonNone,
			Confidence: noDetectionConfidence,
		}
	}

	deviation := math.Hypot(p.offsetX-baseline.NoseOffsetX, p.offsetY-baseline.NoseOffsetY)
	if deviation > c.cfg.PostureThreshold {
		return Verdict{
			Timestamp:  frame.Timestamp,
			Distracted: true,
			Reason:     ReasonPosture,
			Confidence: clamp01(deviation / (2 * c.cfg.PostureThreshold)),
		}
	}

	// Leaning sideways moves the shoulder line more than the nose; catch
	// it by the tilt angle against the baseline.
	tiltDelta := math.Abs(p.tilt - baseline.ShoulderTilt)
	if tiltDelta > c.cfg.TiltThreshold {
		return Verdict{
			Timestamp:  frame.Timestamp,
			Distracted: true,
			Reason:     ReasonPosture,
			Confidence: clamp01(tiltDelta / (2 * c.cfg.TiltThreshold)),
		}
	}

	return Verdict{
		Timestamp:  frame.Timestamp,
		Reason:     ReasonNone,
		Confidence: 1.0,
	}
}

// bestMatch returns the highest confidence among objects whose label is
// in the set and at or above the object confidence floor.
func (c *Classifier) bestMatch(objects []vision.Object, set map[string]bool) (float64, bool) {
	best := 0.0
	found := false
	for _, obj := range objects {
		if !set[obj.Label] || obj.Confidence < c.cfg.ObjectMinConfidence {
			continue
		}
		if obj.Confidence > best {
			best = obj.Confidence
		}
		found = true
	}
	return best, found
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
