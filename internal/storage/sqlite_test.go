package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesEveryMigrationOnce(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		s, err := Open(dir)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		versions, err := s.AppliedMigrations()
		s.Close()
		if err != nil {
			t.Fatalf("AppliedMigrations: %v", err)
		}
		if want := []int{1, 2}; !reflect.DeepEqual(versions, want) {
			t.Errorf("Open #%d: applied = %v, want %v", i+1, versions, want)
		}
	}
}

func TestOpen_SchemaObjects(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{
		"idx_students_created",
		"idx_study_groups_subject",
		"idx_resource_interactions_resource",
		"idx_match_history_student_a",
		"idx_history_queue_due",
		"idx_partner_requests_pending",
		"idx_group_feedback_group",
	} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n); err != nil {
			t.Fatalf("sqlite_master %q: %v", name, err)
		}
		if n != 1 {
			t.Errorf("index %q missing", name)
		}
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping on a closed store should fail")
	}
}

func testHistory(id string) MatchHistory {
	return MatchHistory{
		ID: id, StudentA: "a", StudentB: "b",
		CompatibilityScore: 0.8944, MatchedSubjects: []string{"Mathematics"},
	}
}

func TestEnqueueMatchHistory_ClaimReturnsRecord(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueMatchHistory(testHistory("h1")); err != nil {
		t.Fatalf("EnqueueMatchHistory: %v", err)
	}

	q, err := s.ClaimMatchHistory(time.Now())
	if err != nil {
		t.Fatalf("ClaimMatchHistory: %v", err)
	}
	if q == nil {
		t.Fatal("ClaimMatchHistory returned nil")
	}
	if q.Record.ID != "h1" || q.Record.StudentB != "b" || q.Record.CompatibilityScore != 0.8944 {
		t.Errorf("record = %+v", q.Record)
	}
	if !reflect.DeepEqual(q.Record.MatchedSubjects, []string{"Mathematics"}) {
		t.Errorf("MatchedSubjects = %v", q.Record.MatchedSubjects)
	}
	if q.Record.MatchedAt.IsZero() {
		t.Error("MatchedAt should be stamped at enqueue")
	}
	if q.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 on first claim", q.Attempts)
	}

	// A claimed record is not handed out twice.
	again, err := s.ClaimMatchHistory(time.Now())
	if err != nil {
		t.Fatalf("second ClaimMatchHistory: %v", err)
	}
	if again != nil {
		t.Errorf("second claim = %+v, want nil", again)
	}
}

func TestEnqueueMatchHistory_SameIDQueuedOnce(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.EnqueueMatchHistory(testHistory("h-dup")); err != nil {
			t.Fatalf("EnqueueMatchHistory #%d: %v", i+1, err)
		}
	}

	counts, err := s.HistoryQueueCounts()
	if err != nil {
		t.Fatalf("HistoryQueueCounts: %v", err)
	}
	if counts[QueueQueued] != 1 {
		t.Errorf("queued = %d, want 1", counts[QueueQueued])
	}
}

func TestEnqueueMatchHistory_RejectsIncompleteRecord(t *testing.T) {
	s := openTestStore(t)

	for _, h := range []MatchHistory{
		{StudentA: "a", StudentB: "b"},
		{ID: "h", StudentB: "b"},
		{ID: "h", StudentA: "a"},
	} {
		if err := s.EnqueueMatchHistory(h); err == nil {
			t.Errorf("EnqueueMatchHistory(%+v) should fail", h)
		}
	}
}

func TestClaimMatchHistory_EmptyQueue(t *testing.T) {
	s := openTestStore(t)

	q, err := s.ClaimMatchHistory(time.Now())
	if err != nil {
		t.Fatalf("ClaimMatchHistory: %v", err)
	}
	if q != nil {
		t.Errorf("got %+v, want nil", q)
	}
}

func TestClaimMatchHistory_OldestFirst(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"h-z", "h-a", "h-m"} {
		if err := s.EnqueueMatchHistory(testHistory(id)); err != nil {
			t.Fatalf("EnqueueMatchHistory %s: %v", id, err)
		}
	}

	var got []string
	for {
		q, err := s.ClaimMatchHistory(time.Now())
		if err != nil {
			t.Fatalf("ClaimMatchHistory: %v", err)
		}
		if q == nil {
			break
		}
		got = append(got, q.Record.ID)
	}
	if want := []string{"h-z", "h-a", "h-m"}; !reflect.DeepEqual(got, want) {
		t.Errorf("claim order = %v, want %v", got, want)
	}
}

func TestFinishMatchHistory(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueMatchHistory(testHistory("h1")); err != nil {
		t.Fatalf("EnqueueMatchHistory: %v", err)
	}
	if err := s.FinishMatchHistory("h1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("finishing an unclaimed record: err = %v, want ErrNotFound", err)
	}
	if _, err := s.ClaimMatchHistory(time.Now()); err != nil {
		t.Fatalf("ClaimMatchHistory: %v", err)
	}
	if err := s.FinishMatchHistory("h1"); err != nil {
		t.Fatalf("FinishMatchHistory: %v", err)
	}

	counts, err := s.HistoryQueueCounts()
	if err != nil {
		t.Fatalf("HistoryQueueCounts: %v", err)
	}
	if counts[QueueDone] != 1 || counts[QueueClaimed] != 0 {
		t.Errorf("counts = %v, want one done", counts)
	}

	// Re-enqueueing a written record does not resurrect it.
	if err := s.EnqueueMatchHistory(testHistory("h1")); err != nil {
		t.Fatalf("EnqueueMatchHistory: %v", err)
	}
	if q, _ := s.ClaimMatchHistory(time.Now()); q != nil {
		t.Errorf("claimed %+v after it was written", q)
	}
}

func TestRetryMatchHistory_BacksOffThenDies(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueMatchHistory(testHistory("h1")); err != nil {
		t.Fatalf("EnqueueMatchHistory: %v", err)
	}

	now := time.Now()
	for attempt := 1; attempt <= MaxHistoryAttempts; attempt++ {
		q, err := s.ClaimMatchHistory(now)
		if err != nil {
			t.Fatalf("claim %d: %v", attempt, err)
		}
		if q == nil {
			t.Fatalf("claim %d: nothing due", attempt)
		}
		if q.Attempts != attempt {
			t.Errorf("claim %d: Attempts = %d", attempt, q.Attempts)
		}
		if attempt > 1 && q.LastError != "disk full" {
			t.Errorf("claim %d: LastError = %q", attempt, q.LastError)
		}

		dead, err := s.RetryMatchHistory("h1", "disk full", now)
		if err != nil {
			t.Fatalf("retry %d: %v", attempt, err)
		}
		if dead != (attempt == MaxHistoryAttempts) {
			t.Errorf("retry %d: dead = %v", attempt, dead)
		}
		if dead {
			break
		}

		// Not due until the backoff elapses.
		if q, _ := s.ClaimMatchHistory(now); q != nil {
			t.Fatalf("retry %d: claimed before backoff elapsed", attempt)
		}
		now = now.Add(time.Duration(1<<attempt)*time.Second + time.Second)
	}

	counts, err := s.HistoryQueueCounts()
	if err != nil {
		t.Fatalf("HistoryQueueCounts: %v", err)
	}
	if counts[QueueDead] != 1 {
		t.Errorf("counts = %v, want one dead", counts)
	}
	if _, err := s.RetryMatchHistory("h1", "again", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("retrying a dead record: err = %v, want ErrNotFound", err)
	}
}
