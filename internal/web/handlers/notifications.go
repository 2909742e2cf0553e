package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/foodbridge/pkg/models"
)

// ListNotifications handles GET /api/notifications: the caller's inbox,
// newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	notifications, err := h.notify.List(r.Context(), actor.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// MarkNotificationRead handles POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.notify.MarkRead(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// SendNotification handles POST /api/notifications, the generic
// passthrough available to any authenticated caller.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	if _, ok := ActorFromContext(r.Context()); !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id"`
		DonationID  string `json:"donation_id"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.notify.Send(r.Context(), req.RecipientID, req.DonationID, req.Message)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, n)
}
