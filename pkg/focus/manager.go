package focus

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peerhq/peer/internal/log"
	"github.com/peerhq/peer/internal/metrics"
	"github.com/peerhq/peer/pkg/vision"
)

// EvidenceStore persists episode evidence frames. Save failures are
// recovered locally: the episode proceeds without an evidence ref.
type EvidenceStore interface {
	Save(jpeg []byte) (ref string, err error)
}

// HistoryStore receives sealed session records.
type HistoryStore interface {
	Save(session *Session) error
}

// LiveStats is the snapshot broadcast to dashboards.
type LiveStats struct {
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	Status    string  `json:"status"` // FOCUSED, DISTRACTED, CALIBRATING, ENDED
	Reason    Reason  `json:"reason"`
	Score     float64 `json:"score"`
}

// Manager owns session lifecycle and runs the per-frame pipeline:
// classifier, debouncer, score keeper and evidence capture, in that
// order. Each session's frames are serialized by its own lock (one
// worker context per session); sessions of different users share no
// mutable state beyond the evidence and history backends.
type Manager struct {
	cfg      Config
	history  HistoryStore
	evidence EvidenceStore
	metrics  *metrics.Metrics

	// OnUpdate, when set, receives a stats snapshot after every
	// processed frame, score tick and lifecycle change.
	OnUpdate func(LiveStats)

	mu       sync.RWMutex
	sessions map[string]*liveSession
	active   map[string]string // userID -> session ID

	now func() time.Time
}

// liveSession is a session plus its processing context. The mutex
// serializes every operation touching the record, so an in-flight frame
// always completes before the session is sealed.
type liveSession struct {
	mu sync.Mutex

	rec        *Session
	calibrator *Calibrator
	classifier *Classifier
	debouncer  *Debouncer
	score      *ScoreKeeper

	lastFrame time.Time
	stop      chan struct{}
	sealed    bool
}

// NewManager creates a session manager. History, evidence and metrics
// may each be nil; the corresponding concern is then skipped.
func NewManager(cfg Config, history HistoryStore, evidence EvidenceStore, m *metrics.Metrics) *Manager {
	return &Manager{
		cfg:      cfg,
		history:  history,
		evidence: evidence,
		metrics:  m,
		sessions: make(map[string]*liveSession),
		active:   make(map[string]string),
		now:      time.Now,
	}
}

// Config returns the engine configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// StartSession creates a new session in the calibrating state. A user
// may have at most one session in flight.
func (m *Manager) StartSession(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; exists {
		return "", ErrAlreadyActive
	}

	id := uuid.New().String()
	now := m.now()
	s := &liveSession{
		rec: &Session{
			ID:      id,
			UserID:  userID,
			StartTS: now,
			Status:  StatusCalibrating,
		},
		calibrator: NewCalibrator(m.cfg.CalibrationWindow, m.cfg.LandmarkMinConfidence),
		classifier: NewClassifier(m.cfg),
		debouncer:  NewDebouncer(m.cfg.ConfirmWindow),
		lastFrame:  now,
		stop:       make(chan struct{}),
	}
	m.sessions[id] = s
	m.active[userID] = id

	// The watchdog runs from creation, so a session abandoned during
	// calibration is reclaimed after the grace period instead of
	// blocking its user forever.
	go m.runTicker(s)

	if m.metrics != nil {
		m.metrics.SessionsStarted.Add(1)
		m.metrics.ActiveSessions.Add(1)
	}

	log.Info("session started", "session", id, "user", userID)
	return id, nil
}

// SubmitCalibrationFrame folds one frame into the session's calibration
// window. When the window completes the baseline is set (or replaced,
// for recalibration) and the change is recorded as a discrete mark on
// the session log. Returns the number of frames still needed.
func (m *Manager) SubmitCalibrationFrame(sessionID string, frame vision.Frame) (remaining int, err error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status == StatusEnded {
		return 0, ErrStaleSession
	}

	s.lastFrame = m.now()

	// A calibration frame arriving with no window open (re)starts one:
	// recalibration of an active session.
	if s.calibrator == nil {
		s.calibrator = NewCalibrator(m.cfg.CalibrationWindow, m.cfg.LandmarkMinConfidence)
	}

	remaining, err = s.calibrator.Add(frame)
	if err != nil {
		return remaining, err
	}
	if !s.calibrator.Done() {
		return remaining, nil
	}

	baseline, err := s.calibrator.Baseline()
	if err != nil {
		return remaining, err
	}

	kind := "calibrated"
	if s.rec.Baseline != nil {
		kind = "recalibrated"
	}
	s.rec.Baseline = baseline
	s.rec.Marks = append(s.rec.Marks, Mark{TS: m.now(), Kind: kind})
	s.calibrator = nil

	log.Info("baseline captured", "session", sessionID, "kind", kind, "samples", baseline.Samples)
	return 0, nil
}

// Recalibrate discards the current calibration window so the next
// calibration frames build a fresh baseline. The existing baseline
// stays in effect until the new window completes.
func (m *Manager) Recalibrate(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status == StatusEnded {
		return ErrStaleSession
	}
	s.calibrator = NewCalibrator(m.cfg.CalibrationWindow, m.cfg.LandmarkMinConfidence)
	return nil
}

// ActivateSession transitions a calibrated session to active and starts
// scoring. Activating an already active session is a no-op.
func (m *Manager) ActivateSession(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.rec.Status == StatusEnded {
		s.mu.Unlock()
		return ErrStaleSession
	}
	if s.rec.Status == StatusActive {
		s.mu.Unlock()
		return nil
	}
	if s.rec.Baseline == nil {
		s.mu.Unlock()
		return ErrNotCalibrated
	}

	now := m.now()
	s.rec.Status = StatusActive
	s.score = NewScoreKeeper(m.cfg, now)
	s.lastFrame = now
	s.rec.appendSample(now, s.score.Score())
	stats := m.statsLocked(s)
	s.mu.Unlock()

	log.Info("session active", "session", sessionID)
	m.broadcast(stats)
	return nil
}

// SubmitFrame runs one detection frame through the pipeline and returns
// the current score. Frames for a session must be submitted in
// timestamp order; the session lock serializes processing.
func (m *Manager) SubmitFrame(sessionID string, frame vision.Frame) (float64, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()

	if s.rec.Status == StatusEnded {
		s.mu.Unlock()
		return 0, ErrStaleSession
	}
	if s.rec.Status != StatusActive {
		s.mu.Unlock()
		return 0, ErrNotActive
	}

	now := m.now()
	s.lastFrame = now

	frame = frame.Sanitize()
	verdict := s.classifier.Classify(frame, s.rec.Baseline)
	m.countVerdict(frame, verdict)

	if tr := s.debouncer.Observe(verdict); tr != nil {
		switch {
		case tr.Opened:
			m.openEpisode(s, tr, frame, now)
		case tr.Closed:
			m.closeEpisode(s, tr, now)
		case tr.ReasonChanged:
			if ev := s.rec.OpenEvent(); ev != nil {
				ev.Reason = tr.Reason
			}
		}
	}

	score := s.score.Advance(now)
	stats := m.statsLocked(s)
	s.mu.Unlock()

	m.broadcast(stats)
	return score, nil
}

// EndSession seals the session, closes any open event with the session
// end time, persists the record to history and returns it.
func (m *Manager) EndSession(sessionID string) (*Session, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.rec.Status == StatusEnded {
		s.mu.Unlock()
		return nil, ErrStaleSession
	}
	m.sealLocked(s, m.now(), false)
	rec := s.rec.Clone()
	stats := m.statsLocked(s)
	s.mu.Unlock()

	m.broadcast(stats)
	return rec, nil
}

// LiveStats returns the current snapshot for a session, advancing the
// score to the present moment.
func (m *Manager) LiveStats(sessionID string) (LiveStats, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return LiveStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.score != nil && s.rec.Status == StatusActive {
		s.score.Advance(m.now())
	}
	return m.statsLocked(s), nil
}

// GetSession returns a copy of a session the manager holds, live or
// recently ended. Older records live in the history store.
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone(), nil
}

// ActiveSessionID returns the in-flight session for a user, if any.
func (m *Manager) ActiveSessionID(userID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[userID]
	return id, ok
}

func (m *Manager) lookup(sessionID string) (*liveSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// openEpisode appends a new distraction event and captures evidence.
// Evidence failure is non-fatal: the event persists without a ref.
func (m *Manager) openEpisode(s *liveSession, tr *Transition, frame vision.Frame, now time.Time) {
	ev := DistractionEvent{
		ID:      uuid.New().String(),
		StartTS: tr.At,
		Reason:  tr.Reason,
	}

	if m.evidence != nil && len(frame.Image) > 0 {
		ref, err := m.evidence.Save(frame.Image)
		if err != nil {
			log.Warn("evidence capture failed", "session", s.rec.ID, "error", err)
			if m.metrics != nil {
				m.metrics.EvidenceFailed.Add(1)
			}
		} else {
			ev.EvidenceRef = ref
			if m.metrics != nil {
				m.metrics.EvidenceSaved.Add(1)
			}
		}
	}

	s.rec.Events = append(s.rec.Events, ev)
	s.score.SetDistracted(true, now)

	if m.metrics != nil {
		m.metrics.EpisodesOpened.Add(1)
	}
	log.Info("episode opened", "session", s.rec.ID, "reason", tr.Reason, "onset", tr.At)
}

// closeEpisode closes the open event at the onset of the focused run.
func (m *Manager) closeEpisode(s *liveSession, tr *Transition, now time.Time) {
	if ev := s.rec.OpenEvent(); ev != nil {
		end := tr.At
		ev.EndTS = &end
	}
	s.score.SetDistracted(false, now)

	if m.metrics != nil {
		m.metrics.EpisodesClosed.Add(1)
	}
	log.Info("episode closed", "session", s.rec.ID)
}

// sealLocked ends the session. Caller holds s.mu.
func (m *Manager) sealLocked(s *liveSession, endTS time.Time, interrupted bool) {
	if s.sealed {
		return
	}
	s.sealed = true
	close(s.stop)

	if ev := s.rec.OpenEvent(); ev != nil {
		end := endTS
		ev.EndTS = &end
		if m.metrics != nil {
			m.metrics.EpisodesClosed.Add(1)
		}
	}

	if s.score != nil {
		s.rec.appendSample(endTS, s.score.Advance(endTS))
	}

	if interrupted {
		s.rec.Marks = append(s.rec.Marks, Mark{TS: endTS, Kind: "stream_interrupted"})
		if m.metrics != nil {
			m.metrics.StreamInterruptions.Add(1)
		}
	}

	end := endTS
	s.rec.EndTS = &end
	s.rec.Status = StatusEnded

	// The session stays in the map so later operations are rejected
	// with ErrStaleSession rather than not-found; only the per-user
	// active slot is released.
	m.mu.Lock()
	if m.active[s.rec.UserID] == s.rec.ID {
		delete(m.active, s.rec.UserID)
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsEnded.Add(1)
		m.metrics.ActiveSessions.Add(-1)
	}

	if m.history != nil {
		if err := m.history.Save(s.rec.Clone()); err != nil {
			log.Error("history save failed", "session", s.rec.ID, "error", err)
		}
	}

	log.Info("session ended", "session", s.rec.ID,
		"events", len(s.rec.Events), "interrupted", interrupted)
}

// runTicker drives the wall-clock score sampling and the stream-loss
// watchdog for one active session.
func (m *Manager) runTicker(s *liveSession) {
	ticker := time.NewTicker(m.cfg.ScoreTick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if stats, ok := m.tick(s); ok {
				m.broadcast(stats)
			}
		}
	}
}

// tick samples the score and enforces the stream grace period. The
// grace period covers calibrating sessions too, so an abandoned
// calibration does not hold the user's active slot.
func (m *Manager) tick(s *liveSession) (LiveStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status == StatusEnded {
		return LiveStats{}, false
	}

	now := m.now()
	if s.rec.Status == StatusActive {
		s.rec.appendSample(now, s.score.Advance(now))
	}

	if now.Sub(s.lastFrame) > m.cfg.StreamGrace {
		log.Warn("stream interrupted, sealing session",
			"session", s.rec.ID, "status", s.rec.Status, "grace", m.cfg.StreamGrace)
		m.sealLocked(s, now, true)
		return m.statsLocked(s), true
	}

	return m.statsLocked(s), s.rec.Status == StatusActive
}

// statsLocked builds a stats snapshot. Caller holds s.mu.
func (m *Manager) statsLocked(s *liveSession) LiveStats {
	stats := LiveStats{
		SessionID: s.rec.ID,
		UserID:    s.rec.UserID,
		Reason:    ReasonNone,
		Score:     MaxScore,
	}
	if s.score != nil {
		stats.Score = s.score.Score()
	}

	switch s.rec.Status {
	case StatusActive:
		stats.Status = s.debouncer.State().String()
		if ev := s.rec.OpenEvent(); ev != nil {
			stats.Reason = ev.Reason
		}
	default:
		stats.Status = strings.ToUpper(string(s.rec.Status))
	}
	return stats
}

func (m *Manager) broadcast(stats LiveStats) {
	if m.OnUpdate != nil {
		m.OnUpdate(stats)
	}
}

func (m *Manager) countVerdict(frame vision.Frame, v Verdict) {
	if m.metrics == nil {
		return
	}
	m.metrics.FramesProcessed.Add(1)
	if !frame.HasDetections() {
		m.metrics.FramesNoDetection.Add(1)
	}
	switch {
	case v.Distracted && v.Reason == ReasonPhone:
		m.metrics.VerdictsPhone.Add(1)
	case v.Distracted && v.Reason == ReasonPosture:
		m.metrics.VerdictsPosture.Add(1)
	}
}
