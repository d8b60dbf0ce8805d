// simulate - drive the focus engine with a scripted detection feed
//
// Runs the full pipeline in-process without a camera: calibrates,
// plays a focused/phone/slouch scenario and prints the sealed record.
// Useful for tuning debounce and scoring constants.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/peerhq/peer/internal/log"
	"github.com/peerhq/peer/pkg/focus"
	"github.com/peerhq/peer/pkg/vision"
)

func main() {
	log.Init("warn")

	cfg := focus.DefaultConfig()
	cfg.ConfirmWindow = 5
	cfg.ScoreTick = 200 * time.Millisecond
	manager := focus.NewManager(cfg, nil, nil, nil)

	id, err := manager.StartSession("simulated")
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}
	fmt.Println("session:", id)

	// Calibrate with an upright posture.
	for i := 0; i < cfg.CalibrationWindow; i++ {
		if _, err := manager.SubmitCalibrationFrame(id, uprightFrame()); err != nil {
			fmt.Fprintln(os.Stderr, "calibrate:", err)
			os.Exit(1)
		}
	}
	if err := manager.ActivateSession(id); err != nil {
		fmt.Fprintln(os.Stderr, "activate:", err)
		os.Exit(1)
	}

	// Scenario: focus, phone pickup, recovery, slouch, recovery.
	play(manager, id, uprightFrame, 30, "focused")
	play(manager, id, phoneFrame, 20, "phone in frame")
	play(manager, id, uprightFrame, 20, "phone away")
	play(manager, id, slouchFrame, 20, "slouching")
	play(manager, id, uprightFrame, 20, "sitting up")

	rec, err := manager.EndSession(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "end:", err)
		os.Exit(1)
	}

	fmt.Printf("\nevents: %d\n", len(rec.Events))
	for _, ev := range rec.Events {
		dur := "open"
		if ev.EndTS != nil {
			dur = ev.EndTS.Sub(ev.StartTS).Round(time.Millisecond).String()
		}
		fmt.Printf("  %-8s %s\n", ev.Reason, dur)
	}

	spark, _ := json.Marshal(rec.Sparkline(cfg.SparklineBuckets))
	fmt.Println("\nsparkline:", string(spark))
}

// play submits count frames at ~30fps.
func play(manager *focus.Manager, id string, frame func() vision.Frame, count int, label string) {
	var score float64
	for i := 0; i < count; i++ {
		s, err := manager.SubmitFrame(id, frame())
		if err != nil {
			fmt.Fprintln(os.Stderr, "frame:", err)
			os.Exit(1)
		}
		score = s
		time.Sleep(33 * time.Millisecond)
	}
	fmt.Printf("%-14s score=%.1f\n", label, score)
}

func uprightFrame() vision.Frame {
	return vision.Frame{
		Timestamp: time.Now(),
		Landmarks: map[vision.Landmark]vision.Point{
			vision.LandmarkNose:          {X: 0.50, Y: 0.30, Confidence: 0.95},
			vision.LandmarkLeftShoulder:  {X: 0.35, Y: 0.55, Confidence: 0.95},
			vision.LandmarkRightShoulder: {X: 0.65, Y: 0.55, Confidence: 0.95},
		},
	}
}

func slouchFrame() vision.Frame {
	f := uprightFrame()
	f.Landmarks[vision.LandmarkNose] = vision.Point{X: 0.50, Y: 0.58, Confidence: 0.95}
	return f
}

func phoneFrame() vision.Frame {
	f := uprightFrame()
	f.Objects = []vision.Object{
		{Label: "cell phone", Box: vision.BBox{X: 0.6, Y: 0.7, W: 0.1, H: 0.15}, Confidence: 0.8},
	}
	return f
}
