package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

const (
	colUsers         = "users"
	colDonations     = "donations"
	colNotifications = "notifications"
)

// Firestore is the production Store backed by a Firestore database.
// Conditional donation updates run inside transactions so that the
// read-check-write is atomic.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects to the given project/database. When credentialsPath
// is empty the client falls back to application default credentials (or the
// emulator, when FIRESTORE_EMULATOR_HOST is set).
func NewFirestore(ctx context.Context, projectID, database, credentialsPath string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// Close releases the underlying client.
func (f *Firestore) Close() error {
	return f.client.Close()
}

// --- User operations ---

func (f *Firestore) CreateUser(ctx context.Context, u *models.User) error {
	ref := f.client.Collection(colUsers).Doc(u.ID)

	// Transactional uniqueness check on the normalized email hash.
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := f.client.Collection(colUsers).Where("email_hash", "==", u.EmailHash).Limit(1)
		it := tx.Documents(q)
		defer it.Stop()

		if _, err := it.Next(); err != iterator.Done {
			if err != nil {
				return err
			}
			return apperr.Conflict("email already registered")
		}
		return tx.Create(ref, u)
	})
	if err != nil {
		if apperr.IsConflict(err) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (f *Firestore) UserByID(ctx context.Context, id string) (*models.User, error) {
	snap, err := f.client.Collection(colUsers).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (f *Firestore) UserByEmailHash(ctx context.Context, hash string) (*models.User, error) {
	return f.oneUser(ctx, f.client.Collection(colUsers).Where("email_hash", "==", hash).Limit(1))
}

func (f *Firestore) UserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return f.oneUser(ctx, f.client.Collection(colUsers).Where("reset_token", "==", token).Limit(1))
}

func (f *Firestore) oneUser(ctx context.Context, q firestore.Query) (*models.User, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (f *Firestore) UpdateUser(ctx context.Context, u *models.User) error {
	_, err := f.client.Collection(colUsers).Doc(u.ID).Set(ctx, u)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (f *Firestore) DeleteUser(ctx context.Context, id string) error {
	ref := f.client.Collection(colUsers).Doc(id)

	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return apperr.NotFound("user %s", id)
			}
			return err
		}
		return tx.Delete(ref)
	})
}

func (f *Firestore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	q := f.client.Collection(colUsers).OrderBy("created_at", firestore.Desc)
	if role != "" {
		q = f.client.Collection(colUsers).
			Where("role", "==", string(role)).
			OrderBy("created_at", firestore.Desc)
	}
	return f.queryUsers(ctx, q)
}

func (f *Firestore) ListVolunteersByOrg(ctx context.Context, orgKey string) ([]models.User, error) {
	if orgKey == "" {
		return nil, nil
	}
	q := f.client.Collection(colUsers).
		Where("role", "==", string(models.RoleVolunteer)).
		Where("org_key", "==", orgKey).
		OrderBy("created_at", firestore.Desc)
	return f.queryUsers(ctx, q)
}

func (f *Firestore) queryUsers(ctx context.Context, q firestore.Query) ([]models.User, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []models.User
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query users: %w", err)
		}
		var u models.User
		if err := snap.DataTo(&u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, u)
	}
	return out, nil
}

// --- Donation operations ---

func (f *Firestore) CreateDonation(ctx context.Context, d *models.Donation) error {
	if _, err := f.client.Collection(colDonations).Doc(d.ID).Create(ctx, d); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (f *Firestore) DonationByID(ctx context.Context, id string) (*models.Donation, error) {
	snap, err := f.client.Collection(colDonations).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}

	var d models.Donation
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode donation: %w", err)
	}
	return &d, nil
}

func (f *Firestore) UpdateDonationIf(ctx context.Context, id string, expect []models.DonationStatus, mutate func(*models.Donation)) (*models.Donation, error) {
	ref := f.client.Collection(colDonations).Doc(id)
	var result models.Donation

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return apperr.NotFound("donation %s", id)
		}
		if err != nil {
			return err
		}

		var d models.Donation
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("decode donation: %w", err)
		}

		matched := false
		for _, s := range expect {
			if d.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			return apperr.Conflict("donation %s is %s", id, d.Status)
		}

		mutate(&d)
		result = d
		return tx.Set(ref, &d)
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update donation: %w", err)
	}
	return &result, nil
}

func (f *Firestore) DeleteDonation(ctx context.Context, id string) error {
	ref := f.client.Collection(colDonations).Doc(id)

	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return apperr.NotFound("donation %s", id)
			}
			return err
		}
		return tx.Delete(ref)
	})
}

func (f *Firestore) ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return f.queryDonations(ctx, f.client.Collection(colDonations).
		Where("donor_id", "==", donorID).
		OrderBy("created_at", firestore.Desc))
}

func (f *Firestore) ListByNgo(ctx context.Context, ngoID string) ([]models.Donation, error) {
	return f.queryDonations(ctx, f.client.Collection(colDonations).
		Where("ngo_id", "==", ngoID).
		OrderBy("accepted_at", firestore.Desc))
}

func (f *Firestore) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.Donation, error) {
	return f.queryDonations(ctx, f.client.Collection(colDonations).
		Where("volunteer_id", "==", volunteerID).
		OrderBy("created_at", firestore.Desc))
}

func (f *Firestore) ListByStatus(ctx context.Context, s models.DonationStatus) ([]models.Donation, error) {
	return f.queryDonations(ctx, f.client.Collection(colDonations).
		Where("status", "==", string(s)).
		OrderBy("created_at", firestore.Desc))
}

func (f *Firestore) ListAll(ctx context.Context) ([]models.Donation, error) {
	return f.queryDonations(ctx, f.client.Collection(colDonations).
		OrderBy("created_at", firestore.Desc))
}

func (f *Firestore) queryDonations(ctx context.Context, q firestore.Query) ([]models.Donation, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []models.Donation
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query donations: %w", err)
		}
		var d models.Donation
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode donation: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// --- Notification operations ---

func (f *Firestore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if _, err := f.client.Collection(colNotifications).Doc(n.ID).Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (f *Firestore) NotificationByID(ctx context.Context, id string) (*models.Notification, error) {
	snap, err := f.client.Collection(colNotifications).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}

	var n models.Notification
	if err := snap.DataTo(&n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

func (f *Firestore) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	it := f.client.Collection(colNotifications).
		Where("recipient_id", "==", recipientID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	var out []models.Notification
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query notifications: %w", err)
		}
		var n models.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *Firestore) MarkRead(ctx context.Context, id string) error {
	_, err := f.client.Collection(colNotifications).Doc(id).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if status.Code(err) == codes.NotFound {
		return apperr.NotFound("notification %s", id)
	}
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
