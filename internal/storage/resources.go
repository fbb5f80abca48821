package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const resourceColumns = `id, title, content_url, type, subject_tags, difficulty_level, description, created_at`

func (s *Store) SaveResource(r Resource) error {
	tags, err := encodeList(r.SubjectTags)
	if err != nil {
		return fmt.Errorf("encoding subject tags: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO resources (`+resourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content_url = excluded.content_url,
			type = excluded.type,
			subject_tags = excluded.subject_tags,
			difficulty_level = excluded.difficulty_level,
			description = excluded.description`,
		r.ID, r.Title, r.ContentURL, r.Type, tags, r.DifficultyLevel, r.Description, formatTime(r.CreatedAt),
	)
	return err
}

func (s *Store) GetResource(id string) (Resource, error) {
	r, err := scanResource(s.db.QueryRow(`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Resource{}, ErrNotFound
	}
	return r, err
}

// ListResources returns resources in insertion order. limit <= 0 means no limit.
func (s *Store) ListResources(limit int) ([]Resource, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+resourceColumns+` FROM resources ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RateResource records that a student viewed and rated a resource. A second
// rating by the same student replaces the first.
func (s *Store) RateResource(i Interaction) error {
	if err := s.requireExists("resources", i.ResourceID); err != nil {
		return fmt.Errorf("resource %s: %w", i.ResourceID, err)
	}
	if err := s.requireExists("students", i.StudentID); err != nil {
		return fmt.Errorf("student %s: %w", i.StudentID, err)
	}
	_, err := s.db.Exec(`
		INSERT INTO resource_interactions (student_id, resource_id, rating, comments, viewed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, resource_id) DO UPDATE SET
			rating = excluded.rating,
			comments = excluded.comments,
			viewed_at = excluded.viewed_at`,
		i.StudentID, i.ResourceID, i.Rating, i.Comments, formatTime(i.ViewedAt),
	)
	return err
}

// ResourceRatings returns the average rating of every rated resource, keyed by
// resource ID. Unrated views (rating 0) are not counted.
func (s *Store) ResourceRatings() (map[string]ResourceRating, error) {
	rows, err := s.db.Query(`
		SELECT resource_id, AVG(rating), COUNT(*)
		FROM resource_interactions WHERE rating > 0
		GROUP BY resource_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]ResourceRating)
	for rows.Next() {
		var r ResourceRating
		if err := rows.Scan(&r.ResourceID, &r.Average, &r.Count); err != nil {
			return nil, err
		}
		out[r.ResourceID] = r
	}
	return out, rows.Err()
}

// InteractedResourceIDs returns the IDs of resources studentID has viewed or rated.
func (s *Store) InteractedResourceIDs(studentID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT resource_id FROM resource_interactions WHERE student_id = ? ORDER BY rowid`, studentID)
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

func scanResource(sc scanner) (Resource, error) {
	var r Resource
	var tags, createdAt string
	if err := sc.Scan(&r.ID, &r.Title, &r.ContentURL, &r.Type, &tags, &r.DifficultyLevel, &r.Description, &createdAt); err != nil {
		return Resource{}, err
	}
	var err error
	if r.SubjectTags, err = decodeList(tags); err != nil {
		return Resource{}, fmt.Errorf("decoding subject tags for resource %s: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Resource{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return r, nil
}
