package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with an existing record,
	// such as a duplicate email or an existing group membership.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when a student acts on a record they do not own,
	// such as answering a partner request addressed to someone else.
	ErrForbidden = errors.New("forbidden")
)

type Student struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Avatar              string    `json:"avatar,omitempty"`
	AcademicLevel       string    `json:"academic_level,omitempty"`
	Subjects            []string  `json:"subjects"`
	PreferredStudyTimes []string  `json:"preferred_study_times"`
	LearningStyle       string    `json:"learning_style,omitempty"`
	StudyGoals          string    `json:"study_goals,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type StudyGroup struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Subject       string    `json:"subject"`
	AcademicLevel string    `json:"academic_level,omitempty"`
	MeetingTime   string    `json:"meeting_time,omitempty"`
	GroupType     string    `json:"group_type"` // "Virtual", "In-Person"
	CreatedAt     time.Time `json:"created_at"`
}

// GroupFilter narrows ListGroups. Empty fields match everything.
type GroupFilter struct {
	Subject       string
	AcademicLevel string
	Limit         int
}

type Resource struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ContentURL      string    `json:"content_url"`
	Type            string    `json:"type"` // "Video", "Article", "Quiz"
	SubjectTags     []string  `json:"subject_tags"`
	DifficultyLevel string    `json:"difficulty_level,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Interaction is a student's view of, and optional rating for, a resource.
// There is at most one per (student, resource) pair.
type Interaction struct {
	StudentID  string    `json:"student_id"`
	ResourceID string    `json:"resource_id"`
	Rating     int       `json:"rating"`
	Comments   string    `json:"comments,omitempty"`
	ViewedAt   time.Time `json:"viewed_at"`
}

type ResourceRating struct {
	ResourceID string  `json:"resource_id"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

type MatchHistory struct {
	ID                 string    `json:"id"`
	StudentA           string    `json:"student_a"`
	StudentB           string    `json:"student_b"`
	CompatibilityScore float64   `json:"compatibility_score"`
	MatchedSubjects    []string  `json:"matched_subjects"`
	MatchedAt          time.Time `json:"matched_at"`
	Feedback           string    `json:"feedback,omitempty"` // "", "positive", "negative", "neutral"
}

// Partner request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// StudentRef is the public face of a student inside another record.
type StudentRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// PartnerRequest asks Receiver to become Sender's study partner. Only the
// receiver may answer it, and only while it is pending.
type PartnerRequest struct {
	ID          string     `json:"id"`
	Sender      StudentRef `json:"sender"`
	Receiver    StudentRef `json:"receiver"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// GroupFeedback is a student's rating of a study group, one per pair.
type GroupFeedback struct {
	StudentID string    `json:"student_id"`
	GroupID   string    `json:"group_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments,omitempty"`
	RatedAt   time.Time `json:"rated_at"`
}

type GroupRating struct {
	GroupID string  `json:"group_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
