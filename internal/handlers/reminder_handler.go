package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/gorilla/mux"
)

type ReminderHandler struct {
	Service *services.ReminderService
}

func NewReminderHandler(service *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{Service: service}
}

// POST /reminders
func (h *ReminderHandler) CreateReminderHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var reminder models.Reminder
	if !decode(w, r, &reminder) {
		return
	}

	created, err := h.Service.CreateReminder(r.Context(), userID, &reminder)
	if err != nil {
		respondError(w, r, err, "Failed to create reminder")
		return
	}
	respondOK(w, http.StatusCreated, "Reminder created", created)
}

// GET /reminders
func (h *ReminderHandler) ListRemindersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	reminders, err := h.Service.ListReminders(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to list reminders")
		return
	}
	respondOK(w, http.StatusOK, "Reminders fetched", reminders)
}

// DELETE /reminders/{id}
func (h *ReminderHandler) DeleteReminderHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteReminder(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "Failed to delete reminder")
		return
	}
	respondOK(w, http.StatusOK, "Reminder deleted", nil)
}
