// Package handlers implements the HTTP/JSON boundary. Handlers decode and
// validate request bodies into typed inputs, call the services, and map
// service errors to status codes; they hold no business rules themselves.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/auth"
	"github.com/jredh-dev/foodbridge/internal/lifecycle"
	"github.com/jredh-dev/foodbridge/internal/notify"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	auth      *auth.Service
	lifecycle *lifecycle.Service
	notify    *notify.Service
	tokens    *token.Service
}

// New creates a new Handler.
func New(authService *auth.Service, lifecycleService *lifecycle.Service, notifyService *notify.Service, tokens *token.Service) *Handler {
	return &Handler{
		auth:      authService,
		lifecycle: lifecycleService,
		notify:    notifyService,
		tokens:    tokens,
	}
}

// --- Auth endpoints ---

type signupReq struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Name         string      `json:"name"`
	Organization string      `json:"organization"`
	Role         models.Role `json:"role"`
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Signup(r.Context(), auth.SignupInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Organization: req.Organization,
		Role:         req.Role,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, user)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, tok, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, loginResp{Token: tok, User: user})
}

// FirebaseLogin handles POST /api/auth/firebase. It exchanges a verified
// Firebase ID token for a FoodBridge JWT. The Firebase account must already
// be registered here by email.
func (h *Handler) FirebaseLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.IDToken == "" {
		jsonError(w, "id_token is required", http.StatusBadRequest)
		return
	}

	user, tok, err := h.auth.FirebaseLogin(r.Context(), req.IDToken)
	if err != nil {
		h.writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, loginResp{Token: tok, User: user})
}

// RequestPasswordReset handles POST /api/auth/password-reset
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tok, err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		// Don't reveal which emails exist; unknown addresses get the
		// same response as known ones.
		if apperr.IsNotFound(err) {
			jsonResponse(w, http.StatusOK, map[string]string{"message": "reset token issued if the account exists"})
			return
		}
		h.writeError(w, err)
		return
	}

	// Token delivery (email) is an external collaborator; returning it in
	// the response is the development-mode stand-in.
	jsonResponse(w, http.StatusOK, map[string]string{
		"message":     "reset token issued if the account exists",
		"reset_token": tok,
	})
}

// ResetPassword handles POST /api/auth/password-reset/confirm
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// ListVolunteers handles GET /api/volunteers: the calling NGO's roster,
// linked by organization name.
func (h *Handler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	volunteers, err := h.auth.Volunteers(r.Context(), actor.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if volunteers == nil {
		volunteers = []models.User{}
	}
	jsonResponse(w, http.StatusOK, volunteers)
}

// --- helpers ---

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("error encoding JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// writeError maps a service error to its status code. Internal failures are
// logged server-side and surfaced with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		msg = "internal server error"
	}
	jsonError(w, msg, status)
}
