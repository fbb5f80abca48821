package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PartnerRequestBody struct {
	SenderID   string `json:"sender_id" validate:"required"`
	ReceiverID string `json:"receiver_id" validate:"required,nefield=SenderID"`
}

type RespondRequestBody struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
}

func handleSendRequest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PartnerRequestBody
		if !decodeBody(w, r, &req) {
			return
		}

		created, err := deps.Store.CreatePartnerRequest(uuid.New().String(), req.SenderID, req.ReceiverID)
		if err != nil {
			storeError(w, "student", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// handlePendingRequests lists pending requests the student sent or received.
func handlePendingRequests(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := deps.Store.GetStudent(id); err != nil {
			storeError(w, "student", err)
			return
		}
		reqs, err := deps.Store.PendingPartnerRequests(id)
		if err != nil {
			storeError(w, "requests", err)
			return
		}
		writeJSON(w, http.StatusOK, reqs)
	}
}

func handleRespondRequest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RespondRequestBody
		if !decodeBody(w, r, &req) {
			return
		}

		updated, err := deps.Store.RespondPartnerRequest(chi.URLParam(r, "id"), req.StudentID, req.Status)
		if err != nil {
			storeError(w, "request", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
