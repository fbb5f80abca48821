package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Queue states of a match history write.
const (
	QueueQueued  = "queued"
	QueueClaimed = "claimed"
	QueueDone    = "done"
	QueueDead    = "dead"
)

// MaxHistoryAttempts is how many times a queued history write is tried
// before it is marked dead.
const MaxHistoryAttempts = 3

// QueuedHistory is a match history record claimed from the write queue.
// Attempts counts this claim.
type QueuedHistory struct {
	Record     MatchHistory
	Attempts   int
	LastError  string
	EnqueuedAt time.Time
}

// EnqueueMatchHistory queues h to be written by the history worker. The queue
// is keyed by h.ID, so enqueueing the same record twice is a no-op.
func (s *Store) EnqueueMatchHistory(h MatchHistory) error {
	if h.ID == "" || h.StudentA == "" || h.StudentB == "" {
		return fmt.Errorf("incomplete match history: id=%q student_a=%q student_b=%q", h.ID, h.StudentA, h.StudentB)
	}
	if h.MatchedAt.IsZero() {
		h.MatchedAt = time.Now().UTC()
	}
	record, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encoding match history %s: %w", h.ID, err)
	}

	now := formatTime(time.Now())
	_, err = s.db.Exec(`
		INSERT INTO history_queue (history_id, record_json, state, next_attempt_at, enqueued_at)
		VALUES (?, ?, 'queued', ?, ?)
		ON CONFLICT(history_id) DO NOTHING`,
		h.ID, string(record), now, now,
	)
	return err
}

// ClaimMatchHistory claims the oldest queued record due at now. It returns
// nil when nothing is due. A claimed record is not handed out again until it
// is retried.
func (s *Store) ClaimMatchHistory(now time.Time) (*QueuedHistory, error) {
	var (
		q                  QueuedHistory
		record, enqueuedAt string
	)
	err := s.db.QueryRow(`
		UPDATE history_queue SET state = 'claimed', attempts = attempts + 1
		WHERE history_id = (
			SELECT history_id FROM history_queue
			WHERE state = 'queued' AND next_attempt_at <= ?
			ORDER BY next_attempt_at, rowid
			LIMIT 1
		)
		RETURNING record_json, attempts, last_error, enqueued_at`,
		formatTime(now),
	).Scan(&record, &q.Attempts, &q.LastError, &enqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming match history: %w", err)
	}

	if err := json.Unmarshal([]byte(record), &q.Record); err != nil {
		return nil, fmt.Errorf("decoding queued match history: %w", err)
	}
	if q.EnqueuedAt, err = time.Parse(time.RFC3339, enqueuedAt); err != nil {
		return nil, fmt.Errorf("parsing enqueued_at: %w", err)
	}
	return &q, nil
}

// FinishMatchHistory marks a claimed record as written.
func (s *Store) FinishMatchHistory(historyID string) error {
	return requireRowsAffected(s.db.Exec(
		`UPDATE history_queue SET state = 'done', last_error = '' WHERE history_id = ? AND state = 'claimed'`,
		historyID))
}

// RetryMatchHistory puts a claimed record back in the queue after a failed
// write, backing off 2^attempts seconds from now. Once MaxHistoryAttempts is
// reached the record is marked dead instead and dead is true.
func (s *Store) RetryMatchHistory(historyID, cause string, now time.Time) (dead bool, err error) {
	var attempts int
	err = s.db.QueryRow(`SELECT attempts FROM history_queue WHERE history_id = ? AND state = 'claimed'`, historyID).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	if attempts >= MaxHistoryAttempts {
		_, err = s.db.Exec(`UPDATE history_queue SET state = 'dead', last_error = ? WHERE history_id = ?`, cause, historyID)
		return true, err
	}

	next := now.Add(time.Duration(1<<attempts) * time.Second)
	_, err = s.db.Exec(`UPDATE history_queue SET state = 'queued', last_error = ?, next_attempt_at = ? WHERE history_id = ?`,
		cause, formatTime(next), historyID)
	return false, err
}

// HistoryQueueCounts returns the number of queue entries in each state.
// States with no entries are omitted.
func (s *Store) HistoryQueueCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT state, COUNT(*) FROM history_queue GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
