package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// GroupHandler serves prayer groups and their memberships.
type GroupHandler struct {
	Groups      *services.GroupService
	Memberships *services.MembershipService
}

func NewGroupHandler(groups *services.GroupService, memberships *services.MembershipService) *GroupHandler {
	return &GroupHandler{Groups: groups, Memberships: memberships}
}

// POST /groups
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var group models.PrayerGroup
	if !decode(w, r, &group) {
		return
	}

	created, err := h.Groups.CreateGroup(r.Context(), userID, &group)
	if err != nil {
		respondError(w, r, err, "Failed to create group")
		return
	}
	respondOK(w, http.StatusCreated, "Group created", created)
}

// GET /groups/{id}
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	group, err := h.Groups.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "Failed to get group")
		return
	}
	respondOK(w, http.StatusOK, "Group fetched", group)
}

// POST /groups/{id}/join
func (h *GroupHandler) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	m, err := h.Memberships.JoinGroup(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "Failed to join group")
		return
	}

	message := "Joined group"
	if m.Status == models.MembershipPending {
		message = "Join request sent"
	}
	respondOK(w, http.StatusOK, message, m)
}

// POST /groups/{id}/members/{userId}/approve
func (h *GroupHandler) ApproveMemberHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := h.Memberships.ApproveMember(r.Context(), ownerID, vars["id"], vars["userId"]); err != nil {
		respondError(w, r, err, "Failed to approve member")
		return
	}
	log.WithFields(log.Fields{"group_id": vars["id"], "member_id": vars["userId"]}).Info("Member approved")
	respondOK(w, http.StatusOK, "Member approved", nil)
}

// DELETE /groups/{id}/membership
func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Memberships.LeaveGroup(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "Failed to leave group")
		return
	}
	respondOK(w, http.StatusOK, "Left group", nil)
}

// GET /groups/{id}/pending
func (h *GroupHandler) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	pending, err := h.Memberships.ListPending(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "Failed to list pending members")
		return
	}
	respondOK(w, http.StatusOK, "Pending members fetched", pending)
}
