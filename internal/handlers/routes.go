package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/pkg/middleware"
	"github.com/gorilla/mux"
)

// Router bundles the handlers mounted by NewRouter.
type Router struct {
	Users          *UserHandler
	Groups         *GroupHandler
	PrayerRequests *PrayerRequestHandler
	Notifications  *NotificationHandler
	Devices        *DeviceHandler
	Reminders      *ReminderHandler
	Stream         *NotificationStreamHandler
}

// NewRouter registers every route. All routes except profile creation, the
// VAPID key and the websocket stream require a bearer token.
func NewRouter(h Router, jwtSecret string) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	auth := middleware.AuthMiddleware(jwtSecret)

	// Public routes
	router.HandleFunc("/users", h.Users.CreateUserHandler).Methods(http.MethodPost)
	router.HandleFunc("/push/vapid-public-key", h.Devices.VAPIDPublicKeyHandler).Methods(http.MethodGet)
	if h.Stream != nil {
		router.Handle("/ws/notifications", h.Stream).Methods(http.MethodGet)
	}

	// User routes
	userRoutes := router.PathPrefix("/users").Subrouter()
	userRoutes.Use(auth)
	userRoutes.HandleFunc("/{id}", h.Users.GetUserHandler).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{id}/prayer-requests", h.PrayerRequests.GetVisibleRequestsHandler).Methods(http.MethodGet)

	// Group routes
	groupRoutes := router.PathPrefix("/groups").Subrouter()
	groupRoutes.Use(auth)
	groupRoutes.HandleFunc("", h.Groups.CreateGroupHandler).Methods(http.MethodPost)
	groupRoutes.HandleFunc("/{id}", h.Groups.GetGroupHandler).Methods(http.MethodGet)
	groupRoutes.HandleFunc("/{id}/join", h.Groups.JoinGroupHandler).Methods(http.MethodPost)
	groupRoutes.HandleFunc("/{id}/members/{userId}/approve", h.Groups.ApproveMemberHandler).Methods(http.MethodPost)
	groupRoutes.HandleFunc("/{id}/membership", h.Groups.LeaveGroupHandler).Methods(http.MethodDelete)
	groupRoutes.HandleFunc("/{id}/pending", h.Groups.ListPendingHandler).Methods(http.MethodGet)

	// Prayer request routes
	requestRoutes := router.PathPrefix("/prayer-requests").Subrouter()
	requestRoutes.Use(auth)
	requestRoutes.HandleFunc("", h.PrayerRequests.CreateRequestHandler).Methods(http.MethodPost)
	requestRoutes.HandleFunc("", h.PrayerRequests.ListOwnRequestsHandler).Methods(http.MethodGet)
	requestRoutes.HandleFunc("/{id}", h.PrayerRequests.GetRequestHandler).Methods(http.MethodGet)
	requestRoutes.HandleFunc("/{id}", h.PrayerRequests.UpdateRequestHandler).Methods(http.MethodPut)
	requestRoutes.HandleFunc("/{id}", h.PrayerRequests.DeleteRequestHandler).Methods(http.MethodDelete)
	requestRoutes.HandleFunc("/{id}/shares", h.PrayerRequests.GetSharesHandler).Methods(http.MethodGet)

	// Notification routes
	notifRoutes := router.PathPrefix("/notifications").Subrouter()
	notifRoutes.Use(auth)
	notifRoutes.HandleFunc("", h.Notifications.GetUserNotificationsHandler).Methods(http.MethodGet)
	notifRoutes.HandleFunc("/unread-count", h.Notifications.UnreadCountHandler).Methods(http.MethodGet)
	notifRoutes.HandleFunc("/read-all", h.Notifications.MarkAllAsReadHandler).Methods(http.MethodPost)
	notifRoutes.HandleFunc("/{id}/read", h.Notifications.MarkAsReadHandler).Methods(http.MethodPost)
	notifRoutes.HandleFunc("/{id}", h.Notifications.DeleteNotificationHandler).Methods(http.MethodDelete)

	// Device routes
	deviceRoutes := router.PathPrefix("/devices").Subrouter()
	deviceRoutes.Use(auth)
	deviceRoutes.HandleFunc("", h.Devices.ListDevicesHandler).Methods(http.MethodGet)
	deviceRoutes.HandleFunc("/subscribe", h.Devices.SubscribeHandler).Methods(http.MethodPost)
	deviceRoutes.HandleFunc("/unsubscribe", h.Devices.UnsubscribeHandler).Methods(http.MethodPost)
	deviceRoutes.HandleFunc("/test", h.Devices.TestPushHandler).Methods(http.MethodPost)
	deviceRoutes.HandleFunc("/{id}", h.Devices.RenameDeviceHandler).Methods(http.MethodPatch)

	// Reminder routes
	reminderRoutes := router.PathPrefix("/reminders").Subrouter()
	reminderRoutes.Use(auth)
	reminderRoutes.HandleFunc("", h.Reminders.CreateReminderHandler).Methods(http.MethodPost)
	reminderRoutes.HandleFunc("", h.Reminders.ListRemindersHandler).Methods(http.MethodGet)
	reminderRoutes.HandleFunc("/{id}", h.Reminders.DeleteReminderHandler).Methods(http.MethodDelete)

	return router
}
