package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=positive neutral negative"`
}

func handleMatches(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := deps.Matcher.FindPartners(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func handleRecommendations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := deps.Matcher.Recommend(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleListHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := deps.Store.GetStudent(id); err != nil {
			storeError(w, "student", err)
			return
		}

		entries, err := deps.Store.ListMatchHistory(id, parseIntParam(r, "limit", 20, 100))
		if err != nil {
			storeError(w, "match history", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleHistoryFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedbackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Store.UpdateMatchFeedback(chi.URLParam(r, "id"), req.Feedback); err != nil {
			storeError(w, "match history entry", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}
