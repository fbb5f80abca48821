// Package api exposes the student directory, matching and recommendations
// over HTTP and as MCP tools.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/studymatch/internal/matching"
	"github.com/kalambet/studymatch/internal/matchmaker"
	"github.com/kalambet/studymatch/internal/profile"
	"github.com/kalambet/studymatch/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

type AppDeps struct {
	Store     *storage.Store
	Directory *profile.Directory
	Matcher   *matchmaker.Service
	Token     string
}

// NewRouter returns the HTTP handler. /health and /metrics are public;
// everything else requires the bearer token.
func NewRouter(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(deps))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Route("/students", func(r chi.Router) {
			r.Post("/", handleCreateStudent(deps))
			r.Get("/", handleListStudents(deps))
			r.Get("/{id}", handleGetStudent(deps))
			r.Patch("/{id}", handlePatchStudent(deps))
			r.Delete("/{id}", handleDeleteStudent(deps))
			r.Get("/{id}/matches", handleMatches(deps))
			r.Get("/{id}/recommendations", handleRecommendations(deps))
			r.Get("/{id}/history", handleListHistory(deps))
			r.Get("/{id}/requests", handlePendingRequests(deps))
		})
		r.Patch("/history/{id}", handleHistoryFeedback(deps))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", handleCreateGroup(deps))
			r.Get("/", handleListGroups(deps))
			r.Get("/{id}", handleGetGroup(deps))
			r.Post("/{id}/join", handleJoinGroup(deps))
			r.Post("/{id}/leave", handleLeaveGroup(deps))
			r.Get("/{id}/availability", handleGroupAvailability(deps))
			r.Post("/{id}/feedback", handleGroupFeedback(deps))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", handleSendRequest(deps))
			r.Post("/{id}/respond", handleRespondRequest(deps))
		})

		r.Route("/resources", func(r chi.Router) {
			r.Post("/", handleCreateResource(deps))
			r.Get("/", handleListResources(deps))
			r.Post("/{id}/ratings", handleRateResource(deps))
		})
	})

	return r
}

type healthResponse struct {
	Status       string         `json:"status"`
	HistoryQueue map[string]int `json:"history_queue,omitempty"`
}

// handleHealth reports 503 when the database is unreachable.
func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			httpError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable: %v", err)
			return
		}

		resp := healthResponse{Status: "ok"}
		if counts, err := deps.Store.HistoryQueueCounts(); err == nil {
			resp.HistoryQueue = counts
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// storeError maps domain errors onto HTTP status codes.
func storeError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%s not found", what)
	case errors.Is(err, storage.ErrConflict):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	case errors.Is(err, storage.ErrForbidden):
		httpError(w, http.StatusForbidden, "forbidden", "%v", err)
	case errors.Is(err, matching.ErrInvalidOptions), errors.Is(err, matching.ErrNilVectorizer):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		slog.Error("request failed", "resource", what, "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "failed to process %s: %v", what, err)
	}
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	if err := validateStruct(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return false
	}
	return true
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
