// Package vision defines the detection payload the engine consumes.
// The video/model layer runs pose and object inference and delivers the
// results here as a fixed tagged schema; peer never touches raw pixels
// except to pass the encoded JPEG through to evidence storage.
package vision

import "time"

// Landmark identifies a pose landmark by name.
type Landmark string

// Landmarks the engine cares about. Unknown names in a payload are
// ignored at the boundary rather than rejected.
const (
	LandmarkNose          Landmark = "nose"
	LandmarkLeftShoulder  Landmark = "left_shoulder"
	LandmarkRightShoulder Landmark = "right_shoulder"
	LandmarkLeftEye       Landmark = "left_eye"
	LandmarkRightEye      Landmark = "right_eye"
	LandmarkLeftEar       Landmark = "left_ear"
	LandmarkRightEar      Landmark = "right_ear"
)

// knownLandmarks is the set of landmark names accepted from payloads.
var knownLandmarks = map[Landmark]bool{
	LandmarkNose:          true,
	LandmarkLeftShoulder:  true,
	LandmarkRightShoulder: true,
	LandmarkLeftEye:       true,
	LandmarkRightEye:      true,
	LandmarkLeftEar:       true,
	LandmarkRightEar:      true,
}

// Point is a detected landmark position in normalized image
// coordinates (0-1, origin top-left) with detection confidence.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// BBox is a normalized bounding box (0-1 coordinates).
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Object is a single object detection.
type Object struct {
	Label      string  `json:"label"`
	Box        BBox    `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Frame is one frame's worth of detections.
type Frame struct {
	// Timestamp is when the frame was captured, assigned by the video layer.
	Timestamp time.Time `json:"timestamp"`

	// Landmarks maps landmark names to detected positions.
	// May be empty when the pose model found nothing.
	Landmarks map[Landmark]Point `json:"landmarks,omitempty"`

	// Objects are the object detections for this frame.
	Objects []Object `json:"objects,omitempty"`

	// Image is the encoded JPEG of the frame, if the video layer
	// supplied one. Used only for evidence capture; may be nil.
	Image []byte `json:"image,omitempty"`
}

// Sanitize drops unknown landmark names and zero-confidence objects,
// returning a frame safe for classification. Malformed payloads become
// frames with fewer (or no) detections, never errors: absence of signal
// must not be treated as misbehavior downstream.
func (f Frame) Sanitize() Frame {
	out := Frame{Timestamp: f.Timestamp, Image: f.Image}

	if len(f.Landmarks) > 0 {
		out.Landmarks = make(map[Landmark]Point, len(f.Landmarks))
		for name, pt := range f.Landmarks {
			if !knownLandmarks[name] {
				continue
			}
			if pt.Confidence <= 0 {
				continue
			}
			out.Landmarks[name] = pt
		}
	}

	for _, obj := range f.Objects {
		if obj.Label == "" || obj.Confidence <= 0 {
			continue
		}
		out.Objects = append(out.Objects, obj)
	}

	return out
}

// Landmark returns the named landmark if it was detected with at least
// minConfidence.
func (f Frame) Landmark(name Landmark, minConfidence float64) (Point, bool) {
	pt, ok := f.Landmarks[name]
	if !ok || pt.Confidence < minConfidence {
		return Point{}, false
	}
	return pt, true
}

// HasDetections reports whether the frame carries any usable signal.
func (f Frame) HasDetections() bool {
	return len(f.Landmarks) > 0 || len(f.Objects) > 0
}
