package focus

import "time"

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ScoreKeeper maintains the running focus score with a decay-and-penalty
// model: the score decays at a fixed rate while a distraction episode is
// open and recovers toward the ceiling while focused. Time advances by
// wall clock, not frame count, so frame-rate drops do not distort the
// score's time semantics.
type ScoreKeeper struct {
	score      float64
	decay      float64 // per second, while distracted
	recovery   float64 // per second, while focused
	distracted bool
	last       time.Time
}

// NewScoreKeeper creates a keeper starting at the maximum score.
func NewScoreKeeper(cfg Config, start time.Time) *ScoreKeeper {
	return &ScoreKeeper{
		score:    MaxScore,
		decay:    cfg.DecayPerSecond,
		recovery: cfg.RecoveryPerSecond,
		last:     start,
	}
}

// Advance applies elapsed time at the current state and returns the
// score. Time never runs backwards: an earlier timestamp is a no-op.
func (k *ScoreKeeper) Advance(now time.Time) float64 {
	dt := now.Sub(k.last).Seconds()
	if dt <= 0 {
		return k.score
	}
	k.last = now

	if k.distracted {
		k.score -= k.decay * dt
	} else {
		k.score += k.recovery * dt
	}

	if k.score < MinScore {
		k.score = MinScore
	}
	if k.score > MaxScore {
		k.score = MaxScore
	}
	return k.score
}

// SetDistracted switches the decay direction at the given moment,
// settling elapsed time under the previous state first.
func (k *ScoreKeeper) SetDistracted(distracted bool, at time.Time) {
	k.Advance(at)
	k.distracted = distracted
}

// Distracted reports the current decay direction.
func (k *ScoreKeeper) Distracted() bool {
	return k.distracted
}

// Score returns the current score without advancing time.
func (k *ScoreKeeper) Score() float64 {
	return k.score
}

// SparkBucket is one bucket of a sparkline: the average score of the
// samples that fell into its time window. Count is zero for windows no
// sample landed in; no data is fabricated for them.
type SparkBucket struct {
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

// Sparkline buckets a score timeline into n equal-width time buckets and
// reports per-bucket averages. Timelines with fewer samples than buckets
// degrade gracefully: some buckets simply stay empty.
func Sparkline(samples []ScoreSample, n int) []SparkBucket {
	if len(samples) == 0 || n < 1 {
		return nil
	}

	buckets := make([]SparkBucket, n)
	first := samples[0].TS
	span := samples[len(samples)-1].TS.Sub(first)
	if span <= 0 {
		// Single instant: everything lands in the first bucket.
		for _, s := range samples {
			buckets[0].Score += s.Score
			buckets[0].Count++
		}
		buckets[0].Score /= float64(buckets[0].Count)
		return buckets
	}

	for _, s := range samples {
		idx := int(float64(n) * float64(s.TS.Sub(first)) / float64(span))
		if idx >= n {
			idx = n - 1
		}
		buckets[idx].Score += s.Score
		buckets[idx].Count++
	}
	for i := range buckets {
		if buckets[i].Count > 0 {
			buckets[i].Score /= float64(buckets[i].Count)
		}
	}
	return buckets
}
