package models

import "time"

// Role is the fixed account type assigned at signup. It never changes.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleNgo       Role = "ngo"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleDonor, RoleNgo, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           string `json:"id" firestore:"id"`
	Email        string `json:"email" firestore:"email"`
	EmailHash    string `json:"-" firestore:"email_hash"`
	Name         string `json:"name" firestore:"name"`
	Organization string `json:"organization,omitempty" firestore:"organization"`
	// OrgKey is the normalized organization hash linking volunteers to NGOs.
	OrgKey       string    `json:"-" firestore:"org_key"`
	Role         Role      `json:"role" firestore:"role"`
	Approved     bool      `json:"approved" firestore:"approved"`
	PasswordHash string    `json:"-" firestore:"password_hash"`
	CreatedAt    time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updated_at"`

	// Password reset: single-use token, expiry checked at verification time.
	ResetToken       string     `json:"-" firestore:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" firestore:"reset_token_expiry"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
