package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/foodbridge/pkg/models"
)

// AdminListUsers handles GET /api/admin/users?role=…
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))

	users, err := h.auth.ListUsers(r.Context(), role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// AdminApproveUser handles POST /api/admin/users/{id}/approve.
// Re-approving an approved account is rejected, not silently ignored.
func (h *Handler) AdminApproveUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// AdminUnapproveUser handles POST /api/admin/users/{id}/unapprove.
func (h *Handler) AdminUnapproveUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Unapprove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// AdminDeleteUser handles DELETE /api/admin/users/{id}
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
