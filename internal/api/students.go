package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/studymatch/internal/storage"
)

type StudentRequest struct {
	Name                string   `json:"name" validate:"required,max=200"`
	Email               string   `json:"email" validate:"required,email"`
	Avatar              string   `json:"avatar" validate:"omitempty,url"`
	AcademicLevel       string   `json:"academic_level" validate:"max=100"`
	Subjects            []string `json:"subjects" validate:"max=50,dive,required,max=100"`
	PreferredStudyTimes []string `json:"preferred_study_times" validate:"max=50,dive,required,max=100"`
	LearningStyle       string   `json:"learning_style" validate:"max=100"`
	StudyGoals          string   `json:"study_goals" validate:"max=2000"`
}

// StudentPatch updates only the fields that are present.
type StudentPatch struct {
	Name                *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Email               *string   `json:"email" validate:"omitempty,email"`
	Avatar              *string   `json:"avatar" validate:"omitempty,url"`
	AcademicLevel       *string   `json:"academic_level" validate:"omitempty,max=100"`
	Subjects            *[]string `json:"subjects" validate:"omitempty,max=50,dive,required,max=100"`
	PreferredStudyTimes *[]string `json:"preferred_study_times" validate:"omitempty,max=50,dive,required,max=100"`
	LearningStyle       *string   `json:"learning_style" validate:"omitempty,max=100"`
	StudyGoals          *string   `json:"study_goals" validate:"omitempty,max=2000"`
}

func (p StudentPatch) apply(st *storage.Student) {
	if p.Name != nil {
		st.Name = *p.Name
	}
	if p.Email != nil {
		st.Email = *p.Email
	}
	if p.Avatar != nil {
		st.Avatar = *p.Avatar
	}
	if p.AcademicLevel != nil {
		st.AcademicLevel = *p.AcademicLevel
	}
	if p.Subjects != nil {
		st.Subjects = *p.Subjects
	}
	if p.PreferredStudyTimes != nil {
		st.PreferredStudyTimes = *p.PreferredStudyTimes
	}
	if p.LearningStyle != nil {
		st.LearningStyle = *p.LearningStyle
	}
	if p.StudyGoals != nil {
		st.StudyGoals = *p.StudyGoals
	}
}

func handleCreateStudent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StudentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		now := time.Now().UTC()
		st := storage.Student{
			ID:                  uuid.New().String(),
			Name:                req.Name,
			Email:               req.Email,
			Avatar:              req.Avatar,
			AcademicLevel:       req.AcademicLevel,
			Subjects:            req.Subjects,
			PreferredStudyTimes: req.PreferredStudyTimes,
			LearningStyle:       req.LearningStyle,
			StudyGoals:          req.StudyGoals,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := deps.Directory.Save(st); err != nil {
			storeError(w, "student", err)
			return
		}

		created, err := deps.Store.GetStudent(st.ID)
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleListStudents(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 500)
		offset := parseIntParam(r, "offset", 0, 0)

		students, err := deps.Store.ListStudents(limit, offset)
		if err != nil {
			storeError(w, "students", err)
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

func handleGetStudent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := deps.Store.GetStudent(chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handlePatchStudent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var patch StudentPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		st, err := deps.Store.GetStudent(id)
		if err != nil {
			storeError(w, "student", err)
			return
		}
		patch.apply(&st)
		if err := deps.Directory.Save(st); err != nil {
			storeError(w, "student", err)
			return
		}

		updated, err := deps.Store.GetStudent(id)
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleDeleteStudent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Directory.Delete(chi.URLParam(r, "id")); err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
