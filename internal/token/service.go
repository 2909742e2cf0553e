// Package token issues and verifies the bearer credentials presented by
// clients. A credential resolves to a (user id, role) pair; nothing outside
// this package inspects the token format.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// Service handles JWT generation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	authClient *auth.Client
}

// Claims represents JWT claims for FoodBridge tokens.
type Claims struct {
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// New creates a new token service. authClient may be nil, which disables
// Firebase ID-token exchange.
func New(signingKey, issuer string, ttl time.Duration, authClient *auth.Client) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		authClient: authClient,
	}
}

// GenerateSigningKey generates a secure random signing key.
func GenerateSigningKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate signing key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Generate creates a JWT for an authenticated user.
func (s *Service) Generate(userID, email string, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// Validate parses and verifies a JWT, returning its claims. Missing,
// malformed, expired, or tampered tokens all come back as authentication
// errors.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, apperr.Authentication("invalid token: %v", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperr.Authentication("invalid token")
}

// FirebaseEnabled reports whether Firebase ID-token exchange is configured.
func (s *Service) FirebaseEnabled() bool {
	return s.authClient != nil
}

// ValidateFirebaseToken verifies a Firebase ID token and returns it.
// Used by mobile clients exchanging a Firebase sign-in for a FoodBridge JWT.
func (s *Service) ValidateFirebaseToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if s.authClient == nil {
		return nil, apperr.Authentication("firebase authentication is not configured")
	}
	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperr.Authentication("invalid Firebase token: %v", err)
	}
	return token, nil
}
