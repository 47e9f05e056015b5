package handlers

import (
	"net/http"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/gorilla/mux"
)

// PrayerRequestHandler serves prayer requests.
type PrayerRequestHandler struct {
	Service *services.PrayerRequestService
}

func NewPrayerRequestHandler(service *services.PrayerRequestService) *PrayerRequestHandler {
	return &PrayerRequestHandler{Service: service}
}

type requestWithReport struct {
	Request *models.PrayerRequest  `json:"request"`
	Fanout  *services.FanoutReport `json:"fanout,omitempty"`
}

// POST /prayer-requests
func (h *PrayerRequestHandler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in services.CreateRequestInput
	if !decode(w, r, &in) {
		return
	}

	req, report, err := h.Service.CreateRequest(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err, "Failed to create prayer request")
		return
	}
	respondOK(w, http.StatusCreated, "Prayer request created", requestWithReport{Request: req, Fanout: report})
}

// GET /prayer-requests/{id}
func (h *PrayerRequestHandler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := h.Service.GetRequest(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, r, err, "Failed to get prayer request")
		return
	}
	respondOK(w, http.StatusOK, "Prayer request fetched", req)
}

// GET /prayer-requests?status=
func (h *PrayerRequestHandler) ListOwnRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := models.RequestStatus(r.URL.Query().Get("status"))
	reqs, err := h.Service.ListOwnRequests(r.Context(), userID, status)
	if err != nil {
		respondError(w, r, err, "Failed to list prayer requests")
		return
	}
	respondOK(w, http.StatusOK, "Prayer requests fetched", reqs)
}

// PUT /prayer-requests/{id}
func (h *PrayerRequestHandler) UpdateRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in services.UpdateRequestInput
	if !decode(w, r, &in) {
		return
	}

	req, report, err := h.Service.UpdateRequest(r.Context(), mux.Vars(r)["id"], userID, in)
	if err != nil {
		respondError(w, r, err, "Failed to update prayer request")
		return
	}
	respondOK(w, http.StatusOK, "Prayer request updated", requestWithReport{Request: req, Fanout: report})
}

// DELETE /prayer-requests/{id}
func (h *PrayerRequestHandler) DeleteRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteRequest(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		respondError(w, r, err, "Failed to delete prayer request")
		return
	}
	respondOK(w, http.StatusOK, "Prayer request deleted", nil)
}

// GET /prayer-requests/{id}/shares
func (h *PrayerRequestHandler) GetSharesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	shares, err := h.Service.GetShares(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, r, err, "Failed to get shares")
		return
	}
	respondOK(w, http.StatusOK, "Shares fetched", shares)
}

// GET /users/{id}/prayer-requests
func (h *PrayerRequestHandler) GetVisibleRequestsHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	reqs, err := h.Service.ResolveVisibleRequests(r.Context(), viewerID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err, "Failed to get prayer requests")
		return
	}
	respondOK(w, http.StatusOK, "Prayer requests fetched", reqs)
}
