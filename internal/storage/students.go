package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const studentColumns = `id, name, email, avatar, academic_level, subjects, preferred_study_times, learning_style, study_goals, created_at, updated_at`

// SaveStudent inserts st or, when st.ID already exists, replaces its fields.
// created_at is preserved on update. A duplicate email yields ErrConflict.
func (s *Store) SaveStudent(st Student) error {
	subjects, err := encodeList(st.Subjects)
	if err != nil {
		return fmt.Errorf("encoding subjects: %w", err)
	}
	times, err := encodeList(st.PreferredStudyTimes)
	if err != nil {
		return fmt.Errorf("encoding preferred study times: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			avatar = excluded.avatar,
			academic_level = excluded.academic_level,
			subjects = excluded.subjects,
			preferred_study_times = excluded.preferred_study_times,
			learning_style = excluded.learning_style,
			study_goals = excluded.study_goals,
			updated_at = excluded.updated_at`,
		st.ID, st.Name, st.Email, st.Avatar, st.AcademicLevel, subjects, times,
		st.LearningStyle, st.StudyGoals, formatTime(st.CreatedAt), now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("student email %q: %w", st.Email, ErrConflict)
	}
	return err
}

func (s *Store) GetStudent(id string) (Student, error) {
	row := s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return Student{}, ErrNotFound
	}
	return st, err
}

// ListStudents returns students in insertion order. limit <= 0 means no limit.
func (s *Store) ListStudents(limit, offset int) ([]Student, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryStudents(`SELECT `+studentColumns+` FROM students
		ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
}

func (s *Store) DeleteStudent(id string) error {
	return requireRowsAffected(s.db.Exec(`DELETE FROM students WHERE id = ?`, id))
}

func (s *Store) queryStudents(query string, args ...interface{}) ([]Student, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, st)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(sc scanner) (Student, error) {
	var st Student
	var subjects, times, createdAt, updatedAt string
	if err := sc.Scan(&st.ID, &st.Name, &st.Email, &st.Avatar, &st.AcademicLevel, &subjects, &times,
		&st.LearningStyle, &st.StudyGoals, &createdAt, &updatedAt); err != nil {
		return Student{}, err
	}
	var err error
	if st.Subjects, err = decodeList(subjects); err != nil {
		return Student{}, fmt.Errorf("decoding subjects for student %s: %w", st.ID, err)
	}
	if st.PreferredStudyTimes, err = decodeList(times); err != nil {
		return Student{}, fmt.Errorf("decoding preferred study times for student %s: %w", st.ID, err)
	}
	if st.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Student{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if st.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Student{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return st, nil
}
