package focus

import "time"

// Status is a session lifecycle state.
type Status string

const (
	// StatusCalibrating is the initial state: the session collects
	// calibration frames and cannot process monitoring frames yet.
	StatusCalibrating Status = "calibrating"

	// StatusActive means the per-frame pipeline is running.
	StatusActive Status = "active"

	// StatusEnded is terminal: the record is sealed and immutable.
	StatusEnded Status = "ended"
)

// Reason explains why a frame or episode was classified as distracted.
type Reason string

const (
	ReasonNone    Reason = "none"
	ReasonPhone   Reason = "phone"
	ReasonPosture Reason = "posture"
)

// DistractionEvent is a debounced, durable span of sustained distraction.
type DistractionEvent struct {
	ID      string     `json:"id"`
	StartTS time.Time  `json:"start_ts"`
	EndTS   *time.Time `json:"end_ts,omitempty"`
	Reason  Reason     `json:"reason"`

	// EvidenceRef is the opaque reference of the captured frame, empty
	// when evidence storage was unavailable at episode onset.
	EvidenceRef string `json:"evidence_ref,omitempty"`
}

// Open reports whether the event is still in progress.
func (e *DistractionEvent) Open() bool {
	return e.EndTS == nil
}

// ScoreSample is one point of the score timeline.
type ScoreSample struct {
	TS    time.Time `json:"ts"`
	Score float64   `json:"score"`
}

// Mark is a discrete lifecycle annotation on the session log.
type Mark struct {
	TS   time.Time `json:"ts"`
	Kind string    `json:"kind"` // calibrated, recalibrated, stream_interrupted
}

// Session is the full record of one monitoring session. While active it
// is mutated exclusively by its owning processing context; once ended it
// is sealed and appended to the user's history.
type Session struct {
	ID      string     `json:"id"`
	UserID  string     `json:"user_id"`
	StartTS time.Time  `json:"start_ts"`
	EndTS   *time.Time `json:"end_ts,omitempty"`
	Status  Status     `json:"status"`

	Baseline *Baseline          `json:"baseline,omitempty"`
	Events   []DistractionEvent `json:"events"`
	Timeline []ScoreSample      `json:"timeline"`
	Marks    []Mark             `json:"marks,omitempty"`
}

// OpenEvent returns the session's open event, or nil. Events are
// non-overlapping, so only the last one can be open.
func (s *Session) OpenEvent() *DistractionEvent {
	if len(s.Events) == 0 {
		return nil
	}
	last := &s.Events[len(s.Events)-1]
	if last.Open() {
		return last
	}
	return nil
}

// appendSample appends a score sample, keeping the timeline strictly
// increasing in timestamp. Out-of-order samples are dropped.
func (s *Session) appendSample(ts time.Time, score float64) {
	if n := len(s.Timeline); n > 0 && !ts.After(s.Timeline[n-1].TS) {
		return
	}
	s.Timeline = append(s.Timeline, ScoreSample{TS: ts, Score: score})
}

// Sparkline buckets the score timeline into n equal-width time buckets.
func (s *Session) Sparkline(n int) []SparkBucket {
	return Sparkline(s.Timeline, n)
}

// Clone returns a deep copy safe to hand outside the owning context.
func (s *Session) Clone() *Session {
	out := *s
	if s.EndTS != nil {
		end := *s.EndTS
		out.EndTS = &end
	}
	if s.Baseline != nil {
		b := *s.Baseline
		out.Baseline = &b
	}
	out.Events = make([]DistractionEvent, len(s.Events))
	copy(out.Events, s.Events)
	for i := range out.Events {
		if s.Events[i].EndTS != nil {
			end := *s.Events[i].EndTS
			out.Events[i].EndTS = &end
		}
	}
	out.Timeline = make([]ScoreSample, len(s.Timeline))
	copy(out.Timeline, s.Timeline)
	out.Marks = make([]Mark, len(s.Marks))
	copy(out.Marks, s.Marks)
	return &out
}
