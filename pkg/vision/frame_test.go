package vision

import (
	"testing"
	"time"
)

func TestSanitize_DropsUnknownAndEmptyDetections(t *testing.T) {
	f := Frame{
		Timestamp: time.Now(),
		Landmarks: map[Landmark]Point{
			LandmarkNose:      {X: 0.5, Y: 0.3, Confidence: 0.9},
			Landmark("elbow"): {X: 0.2, Y: 0.7, Confidence: 0.9},
			LandmarkLeftEye:   {X: 0.45, Y: 0.25, Confidence: 0},
		},
		Objects: []Object{
			{Label: "cell phone", Confidence: 0.8},
			{Label: "", Confidence: 0.8},
			{Label: "book", Confidence: 0},
		},
		Image: []byte("jpeg"),
	}

	out := f.Sanitize()

	if len(out.Landmarks) != 1 {
		t.Errorf("landmarks: got %d, want 1 (nose only)", len(out.Landmarks))
	}
	if _, ok := out.Landmarks[LandmarkNose]; !ok {
		t.Error("nose landmark dropped")
	}
	if len(out.Objects) != 1 || out.Objects[0].Label != "cell phone" {
		t.Errorf("objects: got %+v, want the phone only", out.Objects)
	}
	if string(out.Image) != "jpeg" {
		t.Error("image payload must survive sanitization")
	}
	if !out.Timestamp.Equal(f.Timestamp) {
		t.Error("timestamp must survive sanitization")
	}
}

func TestSanitize_EmptyFrameStaysEmpty(t *testing.T) {
	out := Frame{Timestamp: time.Now()}.Sanitize()
	if out.HasDetections() {
		t.Errorf("empty frame reports detections: %+v", out)
	}
}

func TestLandmark_ConfidenceGate(t *testing.T) {
	f := Frame{
		Landmarks: map[Landmark]Point{
			LandmarkNose:         {X: 0.5, Y: 0.3, Confidence: 0.9},
			LandmarkLeftShoulder: {X: 0.35, Y: 0.55, Confidence: 0.3},
		},
	}

	if _, ok := f.Landmark(LandmarkNose, 0.5); !ok {
		t.Error("confident landmark rejected")
	}
	if _, ok := f.Landmark(LandmarkLeftShoulder, 0.5); ok {
		t.Error("low-confidence landmark accepted")
	}
	if _, ok := f.Landmark(LandmarkRightShoulder, 0.5); ok {
		t.Error("absent landmark accepted")
	}
}
