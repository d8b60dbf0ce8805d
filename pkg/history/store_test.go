package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/peerhq/peer/pkg/focus"
)

var historyBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// sealedSession builds an ended session starting n minutes after the
// test epoch, with a short timeline and one closed event.
func sealedSession(t *testing.T, id, userID string, n int) *focus.Session {
	t.Helper()

	start := historyBase.Add(time.Duration(n) * time.Minute)
	end := start.Add(10 * time.Minute)
	eventEnd := start.Add(3 * time.Minute)

	return &focus.Session{
		ID:      id,
		UserID:  userID,
		StartTS: start,
		EndTS:   &end,
		Status:  focus.StatusEnded,
		Events: []focus.DistractionEvent{
			{ID: id + "-ev", StartTS: start.Add(time.Minute), EndTS: &eventEnd, Reason: focus.ReasonPhone},
		},
		Timeline: []focus.ScoreSample{
			{TS: start, Score: 100},
			{TS: start.Add(5 * time.Minute), Score: 70},
			{TS: end, Score: 85},
		},
	}
}

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	store, err := NewJSONStore(path, 20)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return store, path
}

func TestJSONStore_SaveGetRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)

	sess := sealedSession(t, "s1", "user-1", 0)
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "s1" || got.UserID != "user-1" {
		t.Errorf("record identity: got %s/%s", got.ID, got.UserID)
	}
	if len(got.Events) != 1 || got.Events[0].Reason != focus.ReasonPhone {
		t.Errorf("events: got %+v", got.Events)
	}

	// Get hands out a copy, not the stored record.
	got.Events[0].Reason = focus.ReasonPosture
	again, _ := store.Get("s1")
	if again.Events[0].Reason != focus.ReasonPhone {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestJSONStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestJSONStore_ListFiltersAndOrders(t *testing.T) {
	store, _ := newTestStore(t)

	store.Save(sealedSession(t, "old", "user-1", 0))
	store.Save(sealedSession(t, "new", "user-1", 60))
	store.Save(sealedSession(t, "other", "user-2", 30))

	summaries, err := store.List("user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries: got %d, want 2", len(summaries))
	}
	if summaries[0].SessionID != "new" || summaries[1].SessionID != "old" {
		t.Errorf("order: got %s then %s, want newest first",
			summaries[0].SessionID, summaries[1].SessionID)
	}

	// Final score is the last timeline sample; event count and
	// sparkline come along for the dashboard.
	sum := summaries[0]
	if sum.FinalScore != 85 {
		t.Errorf("FinalScore: got %v, want 85", sum.FinalScore)
	}
	if sum.EventCount != 1 {
		t.Errorf("EventCount: got %d, want 1", sum.EventCount)
	}
	if len(sum.Sparkline) != 20 {
		t.Errorf("sparkline buckets: got %d, want 20", len(sum.Sparkline))
	}
}

func TestJSONStore_ListUnknownUser(t *testing.T) {
	store, _ := newTestStore(t)
	store.Save(sealedSession(t, "s1", "user-1", 0))

	summaries, err := store.List("stranger")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("got %d summaries for unknown user, want 0", len(summaries))
	}
}

func TestJSONStore_SurvivesReload(t *testing.T) {
	store, path := newTestStore(t)
	store.Save(sealedSession(t, "s1", "user-1", 0))
	store.Save(sealedSession(t, "s2", "user-1", 60))

	reopened, err := NewJSONStore(path, 20)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got, err := reopened.Get("s1")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.EndTS == nil || !got.EndTS.Equal(historyBase.Add(10*time.Minute)) {
		t.Errorf("EndTS after reload: got %v", got.EndTS)
	}

	summaries, _ := reopened.List("user-1")
	if len(summaries) != 2 {
		t.Errorf("summaries after reload: got %d, want 2", len(summaries))
	}
}

func TestJSONStore_EmptyTimelineSummary(t *testing.T) {
	store, _ := newTestStore(t)

	sess := sealedSession(t, "s1", "user-1", 0)
	sess.Timeline = nil
	sess.Events = nil
	store.Save(sess)

	summaries, _ := store.List("user-1")
	if len(summaries) != 1 {
		t.Fatalf("summaries: got %d, want 1", len(summaries))
	}
	if summaries[0].FinalScore != focus.MaxScore {
		t.Errorf("FinalScore fallback: got %v, want %v", summaries[0].FinalScore, focus.MaxScore)
	}
}
