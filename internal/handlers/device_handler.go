package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/gorilla/mux"
)

// DeviceHandler serves the push device registry.
type DeviceHandler struct {
	Service   *services.DeviceService
	PublicKey string
}

func NewDeviceHandler(service *services.DeviceService, publicKey string) *DeviceHandler {
	return &DeviceHandler{Service: service, PublicKey: publicKey}
}

type subscribeRequest struct {
	Subscription models.PushSubscription `json:"subscription"`
	Title        string                  `json:"title"`
}

// GET /push/vapid-public-key
func (h *DeviceHandler) VAPIDPublicKeyHandler(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, "VAPID public key", map[string]string{"publicKey": h.PublicKey})
}

// GET /devices
func (h *DeviceHandler) ListDevicesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	devices, err := h.Service.ListDevices(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to list devices")
		return
	}
	respondOK(w, http.StatusOK, "Devices fetched", devices)
}

// POST /devices/subscribe
func (h *DeviceHandler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body subscribeRequest
	if !decode(w, r, &body) {
		return
	}

	device, err := h.Service.Subscribe(r.Context(), userID, body.Subscription, body.Title)
	if err != nil {
		respondError(w, r, err, "Failed to subscribe device")
		return
	}
	respondOK(w, http.StatusOK, "Device subscribed", device)
}

// POST /devices/unsubscribe
func (h *DeviceHandler) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := h.Service.Unsubscribe(r.Context(), userID, body.Endpoint); err != nil {
		respondError(w, r, err, "Failed to unsubscribe device")
		return
	}
	respondOK(w, http.StatusOK, "Device unsubscribed", nil)
}

// PATCH /devices/{id}
func (h *DeviceHandler) RenameDeviceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &body) {
		return
	}

	device, err := h.Service.RenameDevice(r.Context(), userID, mux.Vars(r)["id"], body.Title)
	if err != nil {
		respondError(w, r, err, "Failed to rename device")
		return
	}
	respondOK(w, http.StatusOK, "Device renamed", device)
}

// POST /devices/test
func (h *DeviceHandler) TestPushHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if err := decodeOptional(r, &body); err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	payload := push.Payload{Title: "Test notification", Body: "Push notifications are working"}
	if body.Endpoint != "" {
		if err := h.Service.SendToDevice(r.Context(), userID, body.Endpoint, payload); err != nil {
			respondError(w, r, err, "Failed to send test notification")
			return
		}
		respondOK(w, http.StatusOK, "Test notification sent", nil)
		return
	}

	outcomes, err := h.Service.SendToAllDevices(r.Context(), userID, payload)
	if err != nil {
		respondError(w, r, err, "Failed to send test notification")
		return
	}
	respondOK(w, http.StatusOK, "Test notification sent", outcomes)
}
