package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/Dias221467/Prayer_Manager/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, body models.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, models.Response{Success: true, Message: message, Data: data})
}

func respondFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Response{Success: false, Message: message})
}

// respondError maps a service error onto the envelope. Persistence failures
// are logged and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		respondFail(w, http.StatusBadRequest, services.ErrInvalidID.Error())
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrAlreadyMember):
		respondFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondFail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		respondFail(w, http.StatusForbidden, "Forbidden")
	default:
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error(fallback)
		respondFail(w, http.StatusInternalServerError, fallback)
	}
}

// currentUser returns the authenticated user id or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondFail(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.WithError(err).Warn("Failed to decode request body")
		respondFail(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// decodeOptional decodes a body that may be empty.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
