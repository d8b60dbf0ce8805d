package focus

import "time"

// State is the debouncer's confirmed state.
type State int

const (
	// StateFocused means no distraction episode is open.
	StateFocused State = iota
	// StateDistracted means an episode is open.
	StateDistracted
)

// String returns the display name used by live stats.
func (s State) String() string {
	if s == StateDistracted {
		return "DISTRACTED"
	}
	return "FOCUSED"
}

// Transition describes a confirmed change emitted by the debouncer.
// At most one of Opened/Closed/ReasonChanged is set per observation.
type Transition struct {
	// Opened: a distraction episode has been confirmed. At is the
	// timestamp of the first verdict of the confirming run, so the
	// episode duration reflects actual onset rather than the
	// confirmation moment.
	Opened bool

	// Closed: return to focus has been confirmed. At is the timestamp
	// of the first focused verdict of the confirming run.
	Closed bool

	// ReasonChanged: the dominant reason of the open episode changed
	// without closing it. Never produces a second open episode.
	ReasonChanged bool

	At     time.Time
	Reason Reason
}

// Debouncer is an explicit two-state machine with a confirmation
// window. A state change requires ConfirmWindow consecutive verdicts of
// the opposite kind; isolated spikes are rejected.
type Debouncer struct {
	window int
	state  State

	// Current confirming run of opposite-state verdicts.
	runCount   int
	runStart   time.Time
	runReasons map[Reason]int

	// Reasons observed since the episode opened, for dominant-reason
	// tracking while distracted.
	openReasons map[Reason]int
	openReason  Reason
}

// NewDebouncer creates a debouncer with the given confirmation window.
// A window below 1 is clamped to 1 (every frame confirms immediately).
func NewDebouncer(window int) *Debouncer {
	if window < 1 {
		window = 1
	}
	return &Debouncer{
		window:     window,
		runReasons: make(map[Reason]int),
	}
}

// State returns the current confirmed state.
func (d *Debouncer) State() State {
	return d.state
}

// Observe consumes one verdict and returns a transition when a state
// change (or an open episode's reason change) is confirmed, nil
// otherwise.
func (d *Debouncer) Observe(v Verdict) *Transition {
	if d.state == StateFocused {
		return d.observeWhileFocused(v)
	}
	return d.observeWhileDistracted(v)
}

func (d *Debouncer) observeWhileFocused(v Verdict) *Transition {
	if !v.Distracted {
		d.resetRun()
		return nil
	}

	if d.runCount == 0 {
		d.runStart = v.Timestamp
		d.runReasons = make(map[Reason]int)
	}
	d.runCount++
	d.runReasons[v.Reason]++

	if d.runCount < d.window {
		return nil
	}

	// Confirmed: open an episode dated to the onset of the run.
	d.state = StateDistracted
	d.openReasons = d.runReasons
	d.openReason = dominantReason(d.openReasons)
	at := d.runStart
	d.resetRun()
	return &Transition{Opened: true, At: at, Reason: d.openReason}
}

func (d *Debouncer) observeWhileDistracted(v Verdict) *Transition {
	if v.Distracted {
		d.resetRun()
		d.openReasons[v.Reason]++
		if dominant := dominantReason(d.openReasons); dominant != d.openReason {
			d.openReason = dominant
			return &Transition{ReasonChanged: true, At: v.Timestamp, Reason: dominant}
		}
		return nil
	}

	if d.runCount == 0 {
		d.runStart = v.Timestamp
	}
	d.runCount++

	if d.runCount < d.window {
		return nil
	}

	d.state = StateFocused
	at := d.runStart
	d.resetRun()
	d.openReasons = nil
	return &Transition{Closed: true, At: at}
}

func (d *Debouncer) resetRun() {
	d.runCount = 0
	d.runStart = time.Time{}
}

// dominantReason picks the most frequent reason, breaking ties in favor
// of phone over posture.
func dominantReason(counts map[Reason]int) Reason {
	order := []Reason{ReasonPhone, ReasonPosture, ReasonNone}
	best := ReasonNone
	bestCount := 0
	for _, r := range order {
		if counts[r] > bestCount {
			best = r
			bestCount = counts[r]
		}
	}
	return best
}
