package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/studymatch/internal/schedule"
	"github.com/kalambet/studymatch/internal/storage"
)

type GroupRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	Subject       string `json:"subject" validate:"required,max=100"`
	AcademicLevel string `json:"academic_level" validate:"max=100"`
	MeetingTime   string `json:"meeting_time" validate:"max=100"`
	GroupType     string `json:"group_type" validate:"omitempty,oneof=Virtual In-Person"`
}

type MembershipRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

type GroupFeedbackRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comments  string `json:"comments" validate:"max=2000"`
}

// groupResponse is a study group with its member IDs.
type groupResponse struct {
	storage.StudyGroup
	Members []string             `json:"members,omitempty"`
	Rating  *storage.GroupRating `json:"rating,omitempty"`
}

// withRatings pairs each group with its feedback average, if it has one.
func withRatings(store *storage.Store, groups []storage.StudyGroup) ([]groupResponse, error) {
	ratings, err := store.GroupRatings()
	if err != nil {
		return nil, err
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp := groupResponse{StudyGroup: g}
		if r, ok := ratings[g.ID]; ok {
			resp.Rating = &r
		}
		out = append(out, resp)
	}
	return out, nil
}

func handleCreateGroup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GroupRequest
		if !decodeBody(w, r, &req) {
			return
		}

		g := storage.StudyGroup{
			ID:            uuid.New().String(),
			Title:         req.Title,
			Description:   req.Description,
			Subject:       req.Subject,
			AcademicLevel: req.AcademicLevel,
			MeetingTime:   req.MeetingTime,
			GroupType:     req.GroupType,
			CreatedAt:     time.Now().UTC(),
		}
		if err := deps.Store.SaveGroup(g); err != nil {
			storeError(w, "group", err)
			return
		}

		created, err := deps.Store.GetGroup(g.ID)
		if err != nil {
			storeError(w, "group", err)
			return
		}
		writeJSON(w, http.StatusCreated, groupResponse{StudyGroup: created})
	}
}

func handleListGroups(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		groups, err := deps.Store.ListGroups(storage.GroupFilter{
			Subject:       q.Get("subject"),
			AcademicLevel: q.Get("academic_level"),
			Limit:         parseIntParam(r, "limit", 50, 500),
		})
		if err != nil {
			storeError(w, "groups", err)
			return
		}
		resp, err := withRatings(deps.Store, groups)
		if err != nil {
			storeError(w, "group ratings", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetGroup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		g, err := deps.Store.GetGroup(id)
		if err != nil {
			storeError(w, "group", err)
			return
		}
		members, err := deps.Store.GroupMembers(id)
		if err != nil {
			storeError(w, "group members", err)
			return
		}
		rated, err := withRatings(deps.Store, []storage.StudyGroup{g})
		if err != nil {
			storeError(w, "group ratings", err)
			return
		}
		resp := rated[0]
		resp.Members = members
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleJoinGroup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MembershipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Store.JoinGroup(chi.URLParam(r, "id"), req.StudentID); err != nil {
			storeError(w, "group or student", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
	}
}

func handleLeaveGroup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MembershipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Store.LeaveGroup(chi.URLParam(r, "id"), req.StudentID); err != nil {
			storeError(w, "membership", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
	}
}

// handleGroupFeedback records or replaces a student's rating of a group.
func handleGroupFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GroupFeedbackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		f := storage.GroupFeedback{
			StudentID: req.StudentID,
			GroupID:   chi.URLParam(r, "id"),
			Rating:    req.Rating,
			Comments:  req.Comments,
			RatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.RateGroup(f); err != nil {
			storeError(w, "group or student", err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

// handleGroupAvailability lists the weekly windows in which group members'
// preferred study times overlap.
func handleGroupAvailability(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windows, err := groupAvailability(deps.Store, chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, "group", err)
			return
		}
		writeJSON(w, http.StatusOK, windows)
	}
}

func groupAvailability(store *storage.Store, groupID string) ([]schedule.Window, error) {
	if _, err := store.GetGroup(groupID); err != nil {
		return nil, err
	}
	ids, err := store.GroupMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", groupID, err)
	}

	members := make([]schedule.Member, 0, len(ids))
	for _, id := range ids {
		st, err := store.GetStudent(id)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", id, err)
		}
		members = append(members, schedule.Member{ID: st.ID, Name: st.Name, Times: st.PreferredStudyTimes})
	}
	return schedule.Overlaps(members), nil
}
