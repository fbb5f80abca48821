package storage

import (
	"fmt"
	"time"
)

func (s *Store) SaveMatchHistory(h MatchHistory) error {
	subjects, err := encodeList(h.MatchedSubjects)
	if err != nil {
		return fmt.Errorf("encoding matched subjects: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO match_history (id, student_a, student_b, compatibility_score, matched_subjects, matched_at, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.StudentA, h.StudentB, h.CompatibilityScore, subjects, formatTime(h.MatchedAt), h.Feedback,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("match history %s: %w", h.ID, ErrConflict)
	}
	return err
}

// ListMatchHistory returns the matches recorded for studentID, newest first.
func (s *Store) ListMatchHistory(studentID string, limit int) ([]MatchHistory, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, student_a, student_b, compatibility_score, matched_subjects, matched_at, feedback
		FROM match_history WHERE student_a = ?
		ORDER BY matched_at DESC, rowid DESC LIMIT ?`, studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []MatchHistory{}
	for rows.Next() {
		var h MatchHistory
		var subjects, matchedAt string
		if err := rows.Scan(&h.ID, &h.StudentA, &h.StudentB, &h.CompatibilityScore, &subjects, &matchedAt, &h.Feedback); err != nil {
			return nil, err
		}
		if h.MatchedSubjects, err = decodeList(subjects); err != nil {
			return nil, fmt.Errorf("decoding matched subjects for %s: %w", h.ID, err)
		}
		if h.MatchedAt, err = time.Parse(time.RFC3339, matchedAt); err != nil {
			return nil, fmt.Errorf("parsing matched_at: %w", err)
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

func (s *Store) UpdateMatchFeedback(id, feedback string) error {
	return requireRowsAffected(s.db.Exec(`UPDATE match_history SET feedback = ? WHERE id = ?`, feedback, id))
}
