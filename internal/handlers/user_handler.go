package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/config"
	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	jwtutil "github.com/Dias221467/Prayer_Manager/pkg/jwt"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests related to user profiles.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// CreateUserHandler creates a profile and returns a token for it.
func (h *UserHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if !decode(w, r, &user) {
		return
	}

	created, err := h.Service.CreateUser(r.Context(), &user)
	if err != nil {
		respondError(w, r, err, "Failed to create user")
		return
	}

	token, err := jwtutil.GenerateToken(created.ID.Hex(), created.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		respondFail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.WithField("userID", created.ID.Hex()).Info("User created")
	respondOK(w, http.StatusCreated, "User created", map[string]interface{}{
		"token": token,
		"user":  created,
	})
}

// GetUserHandler returns the full profile to its owner and the public view to others.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	requestedID := mux.Vars(r)["id"]
	user, err := h.Service.GetUser(r.Context(), requestedID)
	if err != nil {
		respondError(w, r, err, "Failed to get user")
		return
	}

	if requestedID != viewerID {
		respondOK(w, http.StatusOK, "User fetched", user.Public())
		return
	}
	respondOK(w, http.StatusOK, "User fetched", user)
}
