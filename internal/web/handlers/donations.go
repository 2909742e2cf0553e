package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/foodbridge/internal/lifecycle"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

type createDonationReq struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpiryTime     string  `json:"expiry_time"`          // RFC 3339
	PickupStart    string  `json:"pickup_window_start"`  // RFC 3339
	PickupEnd      string  `json:"pickup_window_end"`    // RFC 3339
	PickupLocation string  `json:"pickup_location"`
	Temperature    string  `json:"temperature"`
	Dietary        string  `json:"dietary"`
	ImageURL       string  `json:"image_url"`
}

// CreateDonation handles POST /api/donations (donor only).
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req createDonationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Description == "" || req.Quantity == 0 ||
		req.ExpiryTime == "" || req.PickupStart == "" || req.PickupEnd == "" {
		jsonError(w, "title, description, quantity, expiry_time, pickup_window_start, and pickup_window_end are required", http.StatusBadRequest)
		return
	}

	expiry, err := time.Parse(time.RFC3339, req.ExpiryTime)
	if err != nil {
		jsonError(w, "expiry_time must be RFC 3339 format", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, req.PickupStart)
	if err != nil {
		jsonError(w, "pickup_window_start must be RFC 3339 format", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, req.PickupEnd)
	if err != nil {
		jsonError(w, "pickup_window_end must be RFC 3339 format", http.StatusBadRequest)
		return
	}

	d, err := h.lifecycle.Create(r.Context(), actor, lifecycle.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		ExpiryTime:     expiry,
		PickupStart:    start,
		PickupEnd:      end,
		PickupLocation: req.PickupLocation,
		Temperature:    req.Temperature,
		Dietary:        req.Dietary,
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, d)
}

// ListDonations handles GET /api/donations, the role-scoped view.
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	donations, err := h.lifecycle.List(r.Context(), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	jsonResponse(w, http.StatusOK, donations)
}

// AvailableDonations handles GET /api/donations/available, the NGO browse
// surface for open listings.
func (h *Handler) AvailableDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.lifecycle.Available(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	jsonResponse(w, http.StatusOK, donations)
}

// GetDonation handles GET /api/donations/{id}
func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	d, err := h.lifecycle.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// ClaimDonation handles POST /api/donations/claim (ngo only).
func (h *Handler) ClaimDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		FoodID string `json:"foodId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FoodID == "" {
		jsonError(w, "foodId is required", http.StatusBadRequest)
		return
	}

	d, err := h.lifecycle.Claim(r.Context(), actor, req.FoodID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// AssignVolunteer handles POST /api/donations/assign (claiming NGO only).
func (h *Handler) AssignVolunteer(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		FoodID      string `json:"foodId"`
		VolunteerID string `json:"volunteerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FoodID == "" || req.VolunteerID == "" {
		jsonError(w, "foodId and volunteerId are required", http.StatusBadRequest)
		return
	}

	d, err := h.lifecycle.AssignVolunteer(r.Context(), actor, req.FoodID, req.VolunteerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// UpdateDonationStatus handles PUT /api/donations/{id}/status
func (h *Handler) UpdateDonationStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Status models.DonationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		jsonError(w, "status is required", http.StatusBadRequest)
		return
	}

	d, err := h.lifecycle.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// DeleteDonation handles DELETE /api/donations/{id}
func (h *Handler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.lifecycle.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
