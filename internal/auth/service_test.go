package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	tokens := token.New("test-signing-key", "foodbridge-test", time.Hour, nil)
	return New(mem, tokens, time.Hour), mem
}

func signup(t *testing.T, s *Service, email string, role models.Role, org string) *models.User {
	t.Helper()
	u, err := s.Signup(context.Background(), SignupInput{
		Email:        email,
		Password:     "hunter22",
		Name:         "Test User",
		Organization: org,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return u
}

func TestSignup(t *testing.T) {
	s, _ := newTestService(t)

	u := signup(t, s, "dana@example.org", models.RoleDonor, "")

	if u.Approved {
		t.Error("new account starts approved")
	}
	if u.Role != models.RoleDonor {
		t.Errorf("role = %s, want donor", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "hunter22" {
		t.Error("password stored unhashed")
	}
	if u.EmailHash == "" {
		t.Error("email hash not derived")
	}
}

func TestSignup_ValidationErrors(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"missing email", SignupInput{Password: "x", Name: "N", Role: models.RoleDonor}},
		{"missing password", SignupInput{Email: "a@b.c", Name: "N", Role: models.RoleDonor}},
		{"unknown role", SignupInput{Email: "a@b.c", Password: "x", Name: "N", Role: "superuser"}},
		{"admin self-registration", SignupInput{Email: "a@b.c", Password: "x", Name: "N", Role: models.RoleAdmin}},
		{"ngo without organization", SignupInput{Email: "a@b.c", Password: "x", Name: "N", Role: models.RoleNgo}},
		{"volunteer without organization", SignupInput{Email: "a@b.c", Password: "x", Name: "N", Role: models.RoleVolunteer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Signup(ctx, tt.in); !apperr.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s, _ := newTestService(t)

	signup(t, s, "dana@example.org", models.RoleDonor, "")

	// Case differences resolve to the same identity.
	_, err := s.Signup(context.Background(), SignupInput{
		Email:    "DANA@Example.org",
		Password: "hunter22",
		Name:     "Dana Again",
		Role:     models.RoleDonor,
	})
	if !apperr.IsConflict(err) {
		t.Errorf("got %v, want conflict", err)
	}
}

func TestLogin(t *testing.T) {
	s, _ := newTestService(t)
	signup(t, s, "dana@example.org", models.RoleDonor, "")

	ctx := context.Background()

	u, tok, err := s.Login(ctx, "dana@example.org", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok == "" {
		t.Error("no token issued")
	}
	if u.Email != "dana@example.org" {
		t.Errorf("user = %s", u.Email)
	}

	// Wrong password and unknown account fail identically.
	_, _, badPass := s.Login(ctx, "dana@example.org", "wrong")
	_, _, noUser := s.Login(ctx, "nobody@example.org", "hunter22")
	if !apperr.IsAuthentication(badPass) || !apperr.IsAuthentication(noUser) {
		t.Errorf("bad password: %v, unknown user: %v, want authentication errors", badPass, noUser)
	}
	if badPass.Error() != noUser.Error() {
		t.Errorf("failure messages differ: %q vs %q", badPass, noUser)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s, mem := newTestService(t)
	signup(t, s, "dana@example.org", models.RoleDonor, "")

	ctx := context.Background()

	tok, err := s.RequestPasswordReset(ctx, "dana@example.org")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if tok == "" {
		t.Fatal("empty reset token")
	}

	if err := s.ResetPassword(ctx, tok, "new-password"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := s.Login(ctx, "dana@example.org", "new-password"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, _, err := s.Login(ctx, "dana@example.org", "hunter22"); !apperr.IsAuthentication(err) {
		t.Errorf("old password still accepted: %v", err)
	}

	// Single use.
	if err := s.ResetPassword(ctx, tok, "another"); !apperr.IsAuthentication(err) {
		t.Errorf("token reuse: got %v, want authentication error", err)
	}

	// Expired tokens are rejected at verification time.
	tok2, err := s.RequestPasswordReset(ctx, "dana@example.org")
	if err != nil {
		t.Fatal(err)
	}
	u, _ := mem.UserByResetToken(ctx, tok2)
	past := time.Now().UTC().Add(-time.Minute)
	u.ResetTokenExpiry = &past
	if err := mem.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetPassword(ctx, tok2, "late"); !apperr.IsAuthentication(err) {
		t.Errorf("expired token: got %v, want authentication error", err)
	}
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	s, _ := newTestService(t)

	if _, err := s.RequestPasswordReset(context.Background(), "ghost@example.org"); !apperr.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestApproveUnapprove(t *testing.T) {
	s, _ := newTestService(t)
	u := signup(t, s, "pat@example.org", models.RoleNgo, "Food Rescue")

	ctx := context.Background()

	approved, err := s.Approve(ctx, u.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.Approved {
		t.Error("approval flag not set")
	}

	// Approving twice is a conflict, not a silent success.
	if _, err := s.Approve(ctx, u.ID); !apperr.IsConflict(err) {
		t.Errorf("double approve: got %v, want conflict", err)
	}

	if _, err := s.Unapprove(ctx, u.ID); err != nil {
		t.Fatalf("unapprove: %v", err)
	}
	if _, err := s.Unapprove(ctx, u.ID); !apperr.IsConflict(err) {
		t.Errorf("double unapprove: got %v, want conflict", err)
	}

	if _, err := s.Approve(ctx, "ghost"); !apperr.IsNotFound(err) {
		t.Errorf("missing user: got %v, want not found", err)
	}
}

func TestVolunteers_RosterByOrganization(t *testing.T) {
	s, _ := newTestService(t)
	ngo := signup(t, s, "pat@example.org", models.RoleNgo, "Food Rescue")
	match := signup(t, s, "vera@example.org", models.RoleVolunteer, "food   RESCUE")
	signup(t, s, "vic@example.org", models.RoleVolunteer, "City Shelter")
	donor := signup(t, s, "dana@example.org", models.RoleDonor, "")

	ctx := context.Background()

	roster, err := s.Volunteers(ctx, ngo.ID)
	if err != nil {
		t.Fatalf("volunteers: %v", err)
	}
	if len(roster) != 1 || roster[0].ID != match.ID {
		t.Errorf("roster = %d entries, want the case-folded organization match", len(roster))
	}

	if _, err := s.Volunteers(ctx, donor.ID); !apperr.IsAuthorization(err) {
		t.Errorf("donor roster: got %v, want authorization error", err)
	}
	if _, err := s.Volunteers(ctx, "ghost"); !apperr.IsNotFound(err) {
		t.Errorf("missing ngo: got %v, want not found", err)
	}
}

func TestListUsers(t *testing.T) {
	s, _ := newTestService(t)
	signup(t, s, "dana@example.org", models.RoleDonor, "")
	signup(t, s, "pat@example.org", models.RoleNgo, "Food Rescue")

	ctx := context.Background()

	all, err := s.ListUsers(ctx, "")
	if err != nil || len(all) != 2 {
		t.Errorf("all users = %d, %v; want 2", len(all), err)
	}
	donors, err := s.ListUsers(ctx, models.RoleDonor)
	if err != nil || len(donors) != 1 {
		t.Errorf("donors = %d, %v; want 1", len(donors), err)
	}
	if _, err := s.ListUsers(ctx, "wizard"); !apperr.IsValidation(err) {
		t.Errorf("unknown role filter: got %v, want validation error", err)
	}
}
