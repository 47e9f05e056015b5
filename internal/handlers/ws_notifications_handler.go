package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	jwtutil "github.com/Dias221467/Prayer_Manager/pkg/jwt"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStreamHandler upgrades authenticated clients onto the realtime hub.
type NotificationStreamHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
	upgrader  websocket.Upgrader
}

// NewNotificationStreamHandler accepts browser origins listed in allowedOrigins.
// An empty list accepts any origin.
func NewNotificationStreamHandler(hub *realtime.Hub, jwtSecret string, allowedOrigins []string) *NotificationStreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &NotificationStreamHandler{
		Hub:       hub,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// GET /ws/notifications?token=
func (h *NotificationStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		log.WithError(err).Warn("WebSocket auth failed")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.Hub.Serve(userID, conn)
}
