// Package history persists sealed session records and serves the
// summaries shown on the dashboard's history view.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/peerhq/peer/pkg/focus"
)

// ErrNotFound is returned when a session record does not exist.
var ErrNotFound = errors.New("history: session not found")

// Summary is the compact per-session view for history listings.
type Summary struct {
	SessionID  string              `json:"session_id"`
	UserID     string              `json:"user_id"`
	StartTS    time.Time           `json:"start_ts"`
	EndTS      *time.Time          `json:"end_ts,omitempty"`
	FinalScore float64             `json:"final_score"`
	EventCount int                 `json:"event_count"`
	Sparkline  []focus.SparkBucket `json:"sparkline"`
}

// Store is the persistence interface for session history.
type Store interface {
	// Save appends a sealed session record. Records are append-only:
	// saving the same ID twice overwrites, but sealed records never
	// change after the first save in practice.
	Save(session *focus.Session) error

	// Get retrieves a full session record by ID.
	Get(sessionID string) (*focus.Session, error)

	// List returns summaries for a user, newest first.
	List(userID string) ([]Summary, error)
}

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path     string
	buckets  int
	sessions map[string]*focus.Session
	mu       sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int              `json:"version"`
	UpdatedAt string           `json:"updated_at"`
	Sessions  []*focus.Session `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore creates a JSON-backed store at the given path, loading
// existing records if the file is present. sparklineBuckets sets the
// bucket count for summaries.
func NewJSONStore(path string, sparklineBuckets int) (*JSONStore, error) {
	store := &JSONStore{
		path:     path,
		buckets:  sparklineBuckets,
		sessions: make(map[string]*focus.Session),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("history: load store: %w", err)
		}
	}

	return store, nil
}

// load reads the store from disk.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	s.sessions = make(map[string]*focus.Session)
	for _, sess := range stored.Sessions {
		s.sessions[sess.ID] = sess
	}
	return nil
}

// save writes the store to disk. Caller holds the write lock.
func (s *JSONStore) save() error {
	sessions := make([]*focus.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}

	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  sessions,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Save appends a sealed session record.
func (s *JSONStore) Save(session *focus.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return s.save()
}

// Get retrieves a full session record by ID.
func (s *JSONStore) Get(sessionID string) (*focus.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// List returns summaries for a user, newest first.
func (s *JSONStore) List(userID string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []Summary
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		summaries = append(summaries, s.summarize(sess))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTS.After(summaries[j].StartTS)
	})
	return summaries, nil
}

func (s *JSONStore) summarize(sess *focus.Session) Summary {
	sum := Summary{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		StartTS:    sess.StartTS,
		EndTS:      sess.EndTS,
		EventCount: len(sess.Events),
		Sparkline:  sess.Sparkline(s.buckets),
	}
	if n := len(sess.Timeline); n > 0 {
		sum.FinalScore = sess.Timeline[n-1].Score
	} else {
		sum.FinalScore = focus.MaxScore
	}
	return sum
}

// Ensure JSONStore implements both the history interface and the
// manager's sink.
var (
	_ Store              = (*JSONStore)(nil)
	_ focus.HistoryStore = (*JSONStore)(nil)
)
