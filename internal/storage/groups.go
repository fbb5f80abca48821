package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const groupColumns = `id, title, description, subject, academic_level, meeting_time, group_type, created_at`

func (s *Store) SaveGroup(g StudyGroup) error {
	groupType := g.GroupType
	if groupType == "" {
		groupType = "Virtual"
	}
	_, err := s.db.Exec(`
		INSERT INTO study_groups (`+groupColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			subject = excluded.subject,
			academic_level = excluded.academic_level,
			meeting_time = excluded.meeting_time,
			group_type = excluded.group_type`,
		g.ID, g.Title, g.Description, g.Subject, g.AcademicLevel, g.MeetingTime, groupType, formatTime(g.CreatedAt),
	)
	return err
}

func (s *Store) GetGroup(id string) (StudyGroup, error) {
	g, err := scanGroup(s.db.QueryRow(`SELECT `+groupColumns+` FROM study_groups WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return StudyGroup{}, ErrNotFound
	}
	return g, err
}

// ListGroups returns groups matching f in insertion order.
func (s *Store) ListGroups(f GroupFilter) ([]StudyGroup, error) {
	var where []string
	var args []interface{}
	if f.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.AcademicLevel != "" {
		where = append(where, "academic_level = ?")
		args = append(args, f.AcademicLevel)
	}

	query := `SELECT ` + groupColumns + ` FROM study_groups`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid LIMIT ?"
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []StudyGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// JoinGroup adds studentID to groupID. It returns ErrNotFound when either
// record is missing and ErrConflict when the student is already a member.
func (s *Store) JoinGroup(groupID, studentID string) error {
	if err := s.requireExists("study_groups", groupID); err != nil {
		return fmt.Errorf("group %s: %w", groupID, err)
	}
	if err := s.requireExists("students", studentID); err != nil {
		return fmt.Errorf("student %s: %w", studentID, err)
	}
	_, err := s.db.Exec(`INSERT INTO group_members (group_id, student_id, joined_at) VALUES (?, ?, ?)`,
		groupID, studentID, time.Now().UTC().Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("student %s already in group %s: %w", studentID, groupID, ErrConflict)
	}
	return err
}

func (s *Store) LeaveGroup(groupID, studentID string) error {
	return requireRowsAffected(s.db.Exec(`DELETE FROM group_members WHERE group_id = ? AND student_id = ?`, groupID, studentID))
}

// GroupMembers returns the student IDs of groupID in join order.
func (s *Store) GroupMembers(groupID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT student_id FROM group_members WHERE group_id = ? ORDER BY rowid`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RateGroup records a student's feedback on a group. A second rating by the
// same student replaces the first.
func (s *Store) RateGroup(f GroupFeedback) error {
	if err := s.requireExists("study_groups", f.GroupID); err != nil {
		return fmt.Errorf("group %s: %w", f.GroupID, err)
	}
	if err := s.requireExists("students", f.StudentID); err != nil {
		return fmt.Errorf("student %s: %w", f.StudentID, err)
	}
	_, err := s.db.Exec(`
		INSERT INTO group_feedback (student_id, group_id, rating, comments, rated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, group_id) DO UPDATE SET
			rating = excluded.rating,
			comments = excluded.comments,
			rated_at = excluded.rated_at`,
		f.StudentID, f.GroupID, f.Rating, f.Comments, formatTime(f.RatedAt),
	)
	return err
}

// GroupRatings returns the average feedback rating of every rated group,
// keyed by group ID.
func (s *Store) GroupRatings() (map[string]GroupRating, error) {
	rows, err := s.db.Query(`SELECT group_id, AVG(rating), COUNT(*) FROM group_feedback GROUP BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]GroupRating)
	for rows.Next() {
		var r GroupRating
		if err := rows.Scan(&r.GroupID, &r.Average, &r.Count); err != nil {
			return nil, err
		}
		out[r.GroupID] = r
	}
	return out, rows.Err()
}

func (s *Store) requireExists(table, id string) error {
	var n int
	// table is always a package constant.
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGroup(sc scanner) (StudyGroup, error) {
	var g StudyGroup
	var createdAt string
	if err := sc.Scan(&g.ID, &g.Title, &g.Description, &g.Subject, &g.AcademicLevel, &g.MeetingTime, &g.GroupType, &createdAt); err != nil {
		return StudyGroup{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return StudyGroup{}, fmt.Errorf("parsing created_at: %w", err)
	}
	g.CreatedAt = t
	return g, nil
}
