package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/foodbridge/internal/auth"
	"github.com/jredh-dev/foodbridge/internal/lifecycle"
	"github.com/jredh-dev/foodbridge/internal/notify"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// newTestRouter wires the full API surface against the in-memory store,
// mirroring the production route table.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mem := store.NewMemory()
	tokens := token.New("test-signing-key", "foodbridge-test", time.Hour, nil)
	h := New(
		auth.New(mem, tokens, time.Hour),
		lifecycle.New(mem, mem, mem),
		notify.New(mem, mem),
		tokens,
	)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/password-reset", h.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens))

			r.Get("/donations", h.ListDonations)
			r.With(RequireRole(models.RoleNgo, models.RoleAdmin)).
				Get("/donations/available", h.AvailableDonations)
			r.Get("/donations/{id}", h.GetDonation)
			r.With(RequireRole(models.RoleDonor)).
				Post("/donations", h.CreateDonation)
			r.With(RequireRole(models.RoleNgo)).
				Post("/donations/claim", h.ClaimDonation)
			r.With(RequireRole(models.RoleNgo)).
				Post("/donations/assign", h.AssignVolunteer)
			r.Put("/donations/{id}/status", h.UpdateDonationStatus)
			r.Delete("/donations/{id}", h.DeleteDonation)

			r.With(RequireRole(models.RoleNgo)).
				Get("/volunteers", h.ListVolunteers)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications", h.SendNotification)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(models.RoleAdmin))
				r.Get("/admin/users", h.AdminListUsers)
				r.Post("/admin/users/{id}/approve", h.AdminApproveUser)
				r.Post("/admin/users/{id}/unapprove", h.AdminUnapproveUser)
				r.Delete("/admin/users/{id}", h.AdminDeleteUser)
			})
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
}

// registerAndLogin creates an account and returns its bearer token and user ID.
func registerAndLogin(t *testing.T, router http.Handler, email string, role models.Role, org string) (string, string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "hunter22", "name": "User " + email,
		"organization": org, "role": string(role),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: %d %s", email, w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &resp)
	return resp.Token, resp.User.ID
}

func donationBody() map[string]interface{} {
	now := time.Now().UTC()
	return map[string]interface{}{
		"title":               "Bread",
		"description":         "Two crates of day-old bread",
		"quantity":            12,
		"unit":                "loaves",
		"expiry_time":         now.Add(24 * time.Hour).Format(time.RFC3339),
		"pickup_window_start": now.Format(time.RFC3339),
		"pickup_window_end":   now.Add(4 * time.Hour).Format(time.RFC3339),
		"pickup_location":     "12 Mill Road",
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "dana@example.org", "password": "hunter22", "name": "Dana", "role": "donor",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	var created models.User
	decode(t, w, &created)
	if created.PasswordHash != "" {
		t.Error("password hash leaked in signup response")
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "dana@example.org", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "dana@example.org", "password": "x", "name": "Dana 2", "role": "donor",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup: %d, want 409", w.Code)
	}
}

func TestDonationEndpoints_FullFlow(t *testing.T) {
	router := newTestRouter(t)
	donorTok, _ := registerAndLogin(t, router, "dana@example.org", models.RoleDonor, "")
	ngoTok, _ := registerAndLogin(t, router, "pat@example.org", models.RoleNgo, "Food Rescue")
	volTok, volID := registerAndLogin(t, router, "vera@example.org", models.RoleVolunteer, "Food Rescue")

	// Donor lists a donation.
	w := doJSON(t, router, http.MethodPost, "/api/donations", donorTok, donationBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var d models.Donation
	decode(t, w, &d)
	if d.Status != models.StatusAvailable {
		t.Errorf("status = %s, want available", d.Status)
	}

	// NGO browses and claims.
	w = doJSON(t, router, http.MethodGet, "/api/donations/available", ngoTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available: %d", w.Code)
	}
	var open []models.Donation
	decode(t, w, &open)
	if len(open) != 1 {
		t.Fatalf("available lists %d, want 1", len(open))
	}

	w = doJSON(t, router, http.MethodPost, "/api/donations/claim", ngoTok, map[string]string{"foodId": d.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("claim: %d %s", w.Code, w.Body.String())
	}

	// Second claim conflicts.
	otherTok, _ := registerAndLogin(t, router, "sam@example.org", models.RoleNgo, "City Shelter")
	w = doJSON(t, router, http.MethodPost, "/api/donations/claim", otherTok, map[string]string{"foodId": d.ID})
	if w.Code != http.StatusConflict {
		t.Errorf("second claim: %d, want 409", w.Code)
	}

	// NGO assigns a volunteer, volunteer advances and completes.
	w = doJSON(t, router, http.MethodPost, "/api/donations/assign", ngoTok,
		map[string]string{"foodId": d.ID, "volunteerId": volID})
	if w.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPut, "/api/donations/"+d.ID+"/status", volTok,
		map[string]string{"status": "in_progress"})
	if w.Code != http.StatusOK {
		t.Fatalf("in_progress: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPut, "/api/donations/"+d.ID+"/status", volTok,
		map[string]string{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("completed: %d %s", w.Code, w.Body.String())
	}
	var done models.Donation
	decode(t, w, &done)
	if done.DeliveredAt == nil {
		t.Error("DeliveredAt missing after completion")
	}

	// Donor's inbox holds the claim and delivery notifications.
	w = doJSON(t, router, http.MethodGet, "/api/notifications", donorTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications: %d", w.Code)
	}
	var inbox []models.Notification
	decode(t, w, &inbox)
	if len(inbox) != 2 {
		t.Errorf("donor inbox has %d notifications, want 2", len(inbox))
	}
}

func TestRoleGates(t *testing.T) {
	router := newTestRouter(t)
	donorTok, _ := registerAndLogin(t, router, "dana@example.org", models.RoleDonor, "")
	ngoTok, _ := registerAndLogin(t, router, "pat@example.org", models.RoleNgo, "Food Rescue")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   interface{}
		want   int
	}{
		{"no token", http.MethodGet, "/api/donations", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/donations", "garbage", nil, http.StatusUnauthorized},
		{"ngo cannot create", http.MethodPost, "/api/donations", ngoTok, donationBody(), http.StatusForbidden},
		{"donor cannot claim", http.MethodPost, "/api/donations/claim", donorTok, map[string]string{"foodId": "x"}, http.StatusForbidden},
		{"donor cannot browse available", http.MethodGet, "/api/donations/available", donorTok, nil, http.StatusForbidden},
		{"donor has no roster", http.MethodGet, "/api/volunteers", donorTok, nil, http.StatusForbidden},
		{"donor is not admin", http.MethodGet, "/api/admin/users", donorTok, nil, http.StatusForbidden},
		{"missing donation", http.MethodGet, "/api/donations/ghost", donorTok, nil, http.StatusNotFound},
		{"claim without id", http.MethodPost, "/api/donations/claim", ngoTok, map[string]string{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.bearer, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	router := newTestRouter(t)
	_, userID := registerAndLogin(t, router, "pat@example.org", models.RoleNgo, "Food Rescue")

	// Admins are seeded, not self-registered; issue a token directly.
	tokens := token.New("test-signing-key", "foodbridge-test", time.Hour, nil)
	adminTok, err := tokens.Generate("admin-1", "admin@example.org", models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/admin/users?role=ngo", adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users: %d %s", w.Code, w.Body.String())
	}
	var users []models.User
	decode(t, w, &users)
	if len(users) != 1 {
		t.Errorf("ngo filter returned %d users, want 1", len(users))
	}

	approve := fmt.Sprintf("/api/admin/users/%s/approve", userID)
	w = doJSON(t, router, http.MethodPost, approve, adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}
	var approved models.User
	decode(t, w, &approved)
	if !approved.Approved {
		t.Error("approval flag not set")
	}

	// Second approval conflicts.
	w = doJSON(t, router, http.MethodPost, approve, adminTok, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double approve: %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/admin/users/"+userID, adminTok, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete user: %d, want 204", w.Code)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "dana@example.org", models.RoleDonor, "")

	w := doJSON(t, router, http.MethodPost, "/api/auth/password-reset", "",
		map[string]string{"email": "dana@example.org"})
	if w.Code != http.StatusOK {
		t.Fatalf("request reset: %d %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["reset_token"] == "" {
		t.Fatal("no reset token returned")
	}

	// Unknown address gets the same 200 with no token.
	w = doJSON(t, router, http.MethodPost, "/api/auth/password-reset", "",
		map[string]string{"email": "ghost@example.org"})
	if w.Code != http.StatusOK {
		t.Errorf("unknown email: %d, want 200", w.Code)
	}
	var ghost map[string]string
	decode(t, w, &ghost)
	if ghost["reset_token"] != "" {
		t.Error("reset token issued for unknown address")
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/password-reset/confirm", "",
		map[string]string{"token": resp["reset_token"], "new_password": "brand-new"})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "dana@example.org", "password": "brand-new"})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password: %d", w.Code)
	}
}
