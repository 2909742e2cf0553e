// Package auth handles account registration, credential verification, the
// password reset flow, and admin moderation of the user base.
package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/pkg/identity"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

const bcryptCost = 12

// Service handles authentication operations.
type Service struct {
	users    store.UserStore
	tokens   *token.Service
	resetTTL time.Duration
}

// New creates a new auth service.
func New(users store.UserStore, tokens *token.Service, resetTTL time.Duration) *Service {
	return &Service{users: users, tokens: tokens, resetTTL: resetTTL}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// SignupInput carries the fields for registration. Role is fixed forever at
// creation; admin accounts cannot be self-registered.
type SignupInput struct {
	Email        string
	Password     string
	Name         string
	Organization string
	Role         models.Role
}

// Signup registers a new account. New accounts start unapproved.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, apperr.Validation("email, password, and name are required")
	}
	if !models.ValidRole(in.Role) || in.Role == models.RoleAdmin {
		return nil, apperr.Validation("role must be donor, ngo, or volunteer")
	}
	if (in.Role == models.RoleNgo || in.Role == models.RoleVolunteer) && in.Organization == "" {
		return nil, apperr.Validation("organization is required for %s accounts", in.Role)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		EmailHash:    identity.EmailHash(in.Email),
		Name:         in.Name,
		Organization: in.Organization,
		OrgKey:       identity.OrgKey(in.Organization),
		Role:         in.Role,
		Approved:     false,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if apperr.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token. A missing user and
// a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.Validation("email and password are required")
	}

	user, err := s.users.UserByEmailHash(ctx, identity.EmailHash(email))
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, "", apperr.Authentication("%v", ErrInvalidCredentials)
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", apperr.Authentication("%v", ErrInvalidCredentials)
	}

	tok, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, tok, nil
}

// FirebaseLogin exchanges a verified Firebase ID token for a local bearer
// token. The Firebase identity must match a registered account by email.
func (s *Service) FirebaseLogin(ctx context.Context, idToken string) (*models.User, string, error) {
	fbToken, err := s.tokens.ValidateFirebaseToken(ctx, idToken)
	if err != nil {
		return nil, "", err
	}

	email, _ := fbToken.Claims["email"].(string)
	if email == "" {
		return nil, "", apperr.Authentication("firebase token carries no email")
	}

	user, err := s.users.UserByEmailHash(ctx, identity.EmailHash(email))
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, "", apperr.NotFound("no account registered for this identity")
	}

	tok, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, tok, nil
}

// RequestPasswordReset stores a single-use reset token on the account and
// returns it. Unknown emails return a not-found error; the handler decides
// whether to surface that distinction.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperr.Validation("email is required")
	}

	user, err := s.users.UserByEmailHash(ctx, identity.EmailHash(email))
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", apperr.NotFound("%v", ErrUserNotFound)
	}

	expiry := time.Now().UTC().Add(s.resetTTL)
	user.ResetToken = uuid.New().String()
	user.ResetTokenExpiry = &expiry
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return user.ResetToken, nil
}

// ResetPassword consumes a reset token and sets a new password. Expiry is
// checked here at verification time; there is no background sweep.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return apperr.Validation("token and new password are required")
	}

	user, err := s.users.UserByResetToken(ctx, resetToken)
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if user == nil || user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return apperr.Authentication("%v", ErrInvalidResetToken)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExpiry = nil
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Approve flips the approval flag on. Re-approving an approved account is a
// conflict, not a silent no-op.
func (s *Service) Approve(ctx context.Context, userID string) (*models.User, error) {
	return s.setApproved(ctx, userID, true)
}

// Unapprove flips the approval flag off. Unapproving an unapproved account
// is likewise rejected. Outstanding bearer tokens are not revoked; they are
// short-lived and stateless.
func (s *Service) Unapprove(ctx context.Context, userID string) (*models.User, error) {
	return s.setApproved(ctx, userID, false)
}

func (s *Service) setApproved(ctx context.Context, userID string, approved bool) (*models.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("%v", ErrUserNotFound)
	}
	if user.Approved == approved {
		if approved {
			return nil, apperr.Conflict("user is already approved")
		}
		return nil, apperr.Conflict("user is not approved")
	}

	user.Approved = approved
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	log.Printf("user %s approval set to %t", userID, approved)
	return user, nil
}

// ListUsers returns accounts, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}
	return s.users.ListUsers(ctx, role)
}

// DeleteUser permanently removes an account.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.users.DeleteUser(ctx, userID)
}

// Volunteers returns the volunteer roster linked to the calling NGO by
// normalized organization name.
func (s *Service) Volunteers(ctx context.Context, ngoID string) ([]models.User, error) {
	ngo, err := s.users.UserByID(ctx, ngoID)
	if err != nil {
		return nil, fmt.Errorf("lookup ngo: %w", err)
	}
	if ngo == nil {
		return nil, apperr.NotFound("%v", ErrUserNotFound)
	}
	if ngo.Role != models.RoleNgo {
		return nil, apperr.Authorization("only NGO accounts have a volunteer roster")
	}
	return s.users.ListVolunteersByOrg(ctx, ngo.OrgKey)
}
