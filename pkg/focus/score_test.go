package focus

import (
	"math"
	"testing"
)

func scoreConfig() Config {
	cfg := DefaultConfig()
	cfg.DecayPerSecond = 10
	cfg.RecoveryPerSecond = 2
	return cfg
}

func TestScoreKeeper_StartsAtMax(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))
	if k.Score() != MaxScore {
		t.Errorf("initial score: got %v, want %v", k.Score(), MaxScore)
	}
}

func TestScoreKeeper_NoDecayWhileFocused(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))

	if got := k.Advance(at(30)); got != MaxScore {
		t.Errorf("focused score after 30s: got %v, want %v", got, MaxScore)
	}
}

func TestScoreKeeper_DecaysWhileDistracted(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))

	k.SetDistracted(true, at(0))
	got := k.Advance(at(3))
	want := MaxScore - 3*10.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score after 3s distracted: got %v, want %v", got, want)
	}
}

func TestScoreKeeper_FloorsAtZero(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))

	k.SetDistracted(true, at(0))
	if got := k.Advance(at(1000)); got != MinScore {
		t.Errorf("score should floor at %v, got %v", MinScore, got)
	}
}

func TestScoreKeeper_RecoversWithoutOvershoot(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))

	// Drop to 80, then recover.
	k.SetDistracted(true, at(0))
	k.Advance(at(2))
	k.SetDistracted(false, at(2))

	got := k.Advance(at(7)) // 5s of recovery at 2/s
	want := 90.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("recovered score: got %v, want %v", got, want)
	}

	if got := k.Advance(at(1000)); got != MaxScore {
		t.Errorf("recovery should cap at %v, got %v", MaxScore, got)
	}
}

func TestScoreKeeper_TimeNeverRunsBackwards(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(10))

	k.SetDistracted(true, at(10))
	k.Advance(at(12))
	before := k.Score()

	if got := k.Advance(at(5)); got != before {
		t.Errorf("earlier timestamp changed the score: got %v, want %v", got, before)
	}
}

func TestScoreKeeper_SetDistractedSettlesElapsedTime(t *testing.T) {
	k := NewScoreKeeper(scoreConfig(), at(0))

	// 4s focused (no-op from max), then the flip happens at t=4: the
	// decay must start there, not at t=0.
	k.SetDistracted(true, at(4))
	got := k.Advance(at(6))
	want := MaxScore - 2*10.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score: got %v, want %v", got, want)
	}
}

func TestSparkline_FewerSamplesThanBuckets(t *testing.T) {
	samples := []ScoreSample{
		{TS: at(0), Score: 100},
		{TS: at(1), Score: 90},
		{TS: at(2), Score: 80},
		{TS: at(3), Score: 70},
		{TS: at(4), Score: 60},
	}

	buckets := Sparkline(samples, 20)
	if len(buckets) != 20 {
		t.Fatalf("bucket count: got %d, want 20", len(buckets))
	}

	populated := 0
	for _, b := range buckets {
		if b.Count > 0 {
			populated++
		} else if b.Score != 0 {
			t.Errorf("empty bucket carries fabricated score %v", b.Score)
		}
	}
	if populated != 5 {
		t.Errorf("populated buckets: got %d, want 5", populated)
	}
}

func TestSparkline_BucketAveraging(t *testing.T) {
	// 4 samples over 2 buckets: each bucket averages its half.
	samples := []ScoreSample{
		{TS: at(0), Score: 100},
		{TS: at(1), Score: 80},
		{TS: at(2), Score: 60},
		{TS: at(3), Score: 40},
	}

	buckets := Sparkline(samples, 2)
	if len(buckets) != 2 {
		t.Fatalf("bucket count: got %d, want 2", len(buckets))
	}
	// idx = 2*(dt/3s): t0,t1 -> bucket 0; t2,t3 -> bucket 1.
	if math.Abs(buckets[0].Score-90) > 1e-9 || buckets[0].Count != 2 {
		t.Errorf("bucket 0: got %+v, want avg 90 of 2", buckets[0])
	}
	if math.Abs(buckets[1].Score-50) > 1e-9 || buckets[1].Count != 2 {
		t.Errorf("bucket 1: got %+v, want avg 50 of 2", buckets[1])
	}
}

func TestSparkline_DegenerateInputs(t *testing.T) {
	if got := Sparkline(nil, 20); got != nil {
		t.Errorf("empty timeline: got %v, want nil", got)
	}

	single := []ScoreSample{{TS: at(0), Score: 75}}
	buckets := Sparkline(single, 20)
	if len(buckets) != 20 {
		t.Fatalf("bucket count: got %d, want 20", len(buckets))
	}
	if buckets[0].Count != 1 || buckets[0].Score != 75 {
		t.Errorf("single sample bucket: got %+v", buckets[0])
	}
}
