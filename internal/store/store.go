// Package store defines the persistence interfaces for users, donations,
// and notifications, with two implementations: Firestore for production and
// an in-memory store for tests and local development.
//
// Donation status changes go through UpdateDonationIf, a compare-and-set:
// the mutation is applied only while the current status matches one of the
// expected values, atomically. Two racing claims on the same donation can
// therefore never both succeed.
package store

import (
	"context"

	"github.com/jredh-dev/foodbridge/pkg/models"
)

// UserStore persists accounts. CreateUser rejects a duplicate normalized
// email hash with a conflict error.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmailHash(ctx context.Context, hash string) (*models.User, error)
	UserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	ListVolunteersByOrg(ctx context.Context, orgKey string) ([]models.User, error)
}

// DonationStore persists donations. Reads return (nil, nil) when the
// donation does not exist, mirroring the lookup style of the rest of the
// store layer.
type DonationStore interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	DonationByID(ctx context.Context, id string) (*models.Donation, error)

	// UpdateDonationIf atomically applies mutate to the donation only if
	// its current status is one of expect. It returns a conflict error
	// when the status does not match, and a not-found error when the
	// donation is absent. The mutated record is persisted and returned.
	UpdateDonationIf(ctx context.Context, id string, expect []models.DonationStatus, mutate func(*models.Donation)) (*models.Donation, error)

	DeleteDonation(ctx context.Context, id string) error

	ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error)
	// ListByNgo orders by acceptance time, newest first.
	ListByNgo(ctx context.Context, ngoID string) ([]models.Donation, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.Donation, error)
	ListByStatus(ctx context.Context, status models.DonationStatus) ([]models.Donation, error)
	ListAll(ctx context.Context) ([]models.Donation, error)
}

// NotificationStore appends and reads notification rows.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	NotificationByID(ctx context.Context, id string) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// Store bundles the three collections behind one handle.
type Store interface {
	UserStore
	DonationStore
	NotificationStore
}
