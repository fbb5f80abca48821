package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/studymatch/internal/storage"
)

type ResourceRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	ContentURL      string   `json:"content_url" validate:"required,url"`
	Type            string   `json:"type" validate:"required,oneof=Video Article Quiz"`
	SubjectTags     []string `json:"subject_tags" validate:"max=50,dive,required,max=100"`
	DifficultyLevel string   `json:"difficulty_level" validate:"max=100"`
	Description     string   `json:"description" validate:"max=2000"`
}

type RatingRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comments  string `json:"comments" validate:"max=2000"`
}

// resourceResponse is a resource with its aggregate rating.
type resourceResponse struct {
	storage.Resource
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

func handleCreateResource(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResourceRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res := storage.Resource{
			ID:              uuid.New().String(),
			Title:           req.Title,
			ContentURL:      req.ContentURL,
			Type:            req.Type,
			SubjectTags:     req.SubjectTags,
			DifficultyLevel: req.DifficultyLevel,
			Description:     req.Description,
			CreatedAt:       time.Now().UTC(),
		}
		if err := deps.Store.SaveResource(res); err != nil {
			storeError(w, "resource", err)
			return
		}

		created, err := deps.Store.GetResource(res.ID)
		if err != nil {
			storeError(w, "resource", err)
			return
		}
		writeJSON(w, http.StatusCreated, resourceResponse{Resource: created})
	}
}

func handleListResources(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resources, err := deps.Store.ListResources(parseIntParam(r, "limit", 50, 500))
		if err != nil {
			storeError(w, "resources", err)
			return
		}
		ratings, err := deps.Store.ResourceRatings()
		if err != nil {
			storeError(w, "ratings", err)
			return
		}

		out := make([]resourceResponse, len(resources))
		for i, res := range resources {
			out[i] = resourceResponse{Resource: res}
			if rr, ok := ratings[res.ID]; ok {
				out[i].AverageRating = rr.Average
				out[i].RatingCount = rr.Count
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleRateResource(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RatingRequest
		if !decodeBody(w, r, &req) {
			return
		}

		err := deps.Store.RateResource(storage.Interaction{
			StudentID:  req.StudentID,
			ResourceID: chi.URLParam(r, "id"),
			Rating:     req.Rating,
			Comments:   req.Comments,
			ViewedAt:   time.Now().UTC(),
		})
		if err != nil {
			storeError(w, "resource or student", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rated"})
	}
}
