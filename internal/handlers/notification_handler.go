package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.Service.GetUserNotifications(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to get notifications")
		return
	}
	respondOK(w, http.StatusOK, "Notifications fetched", notifications)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to count notifications")
		return
	}
	respondOK(w, http.StatusOK, "Unread count fetched", map[string]int64{"count": count})
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.MarkAsRead(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "Failed to mark as read")
		return
	}
	respondOK(w, http.StatusOK, "Notification marked as read", nil)
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to mark notifications as read")
		return
	}
	respondOK(w, http.StatusOK, "All notifications marked as read", result)
}

// DELETE /notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "Failed to delete notification")
		return
	}
	respondOK(w, http.StatusOK, "Notification deleted", nil)
}
