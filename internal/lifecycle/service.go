// Package lifecycle owns donation status transitions and their guards.
//
// The status machine is: available → assigned → in_progress → completed,
// with cancelled reachable from available and assigned. Claiming an
// available donation moves it to assigned and records the NGO; attaching a
// volunteer sets the participant reference without changing the phase.
// Every transition is applied through the store's conditional update, so a
// transition observed-then-raced is rejected rather than lost.
//
// Notifications are emitted after the donation write and are best-effort:
// a failed notification is logged and never rolls back or fails the
// transition.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/metrics"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// Actor is the resolved identity performing an operation. It is produced by
// the authorization gate and threaded explicitly; the lifecycle never reads
// identity from ambient state.
type Actor struct {
	UserID string
	Role   models.Role
}

// Service is the donation lifecycle manager.
type Service struct {
	donations     store.DonationStore
	users         store.UserStore
	notifications store.NotificationStore
}

// New creates a lifecycle service.
func New(donations store.DonationStore, users store.UserStore, notifications store.NotificationStore) *Service {
	return &Service{donations: donations, users: users, notifications: notifications}
}

// CreateInput carries the fields for a new donation listing.
type CreateInput struct {
	Title          string
	Description    string
	Quantity       float64
	Unit           string
	ExpiryTime     time.Time
	PickupStart    time.Time
	PickupEnd      time.Time
	PickupLocation string
	Temperature    string
	Dietary        string
	ImageURL       string
}

// Create lists a new donation. Donor role only; all required fields must be
// present. The donation starts available with no NGO or volunteer.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Donation, error) {
	if actor.Role != models.RoleDonor {
		return nil, apperr.Authorization("only donors can list donations")
	}

	switch {
	case in.Title == "", in.Description == "", in.Unit == "", in.PickupLocation == "":
		return nil, apperr.Validation("title, description, unit, and pickup_location are required")
	case in.Quantity <= 0:
		return nil, apperr.Validation("quantity must be positive")
	case in.ExpiryTime.IsZero(), in.PickupStart.IsZero(), in.PickupEnd.IsZero():
		return nil, apperr.Validation("expiry_time, pickup_window_start, and pickup_window_end are required")
	case in.PickupEnd.Before(in.PickupStart):
		return nil, apperr.Validation("pickup window end precedes start")
	}

	d := &models.Donation{
		ID:             uuid.New().String(),
		DonorID:        actor.UserID,
		Title:          in.Title,
		Description:    in.Description,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpiryTime:     in.ExpiryTime,
		PickupStart:    in.PickupStart,
		PickupEnd:      in.PickupEnd,
		PickupLocation: in.PickupLocation,
		Temperature:    in.Temperature,
		Dietary:        in.Dietary,
		ImageURL:       in.ImageURL,
		Status:         models.StatusAvailable,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.donations.CreateDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return d, nil
}

// Get returns a donation by ID. Participants and admins read it in any
// state; NGOs may additionally read available donations, which backs the
// browse-then-claim flow.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*models.Donation, error) {
	d, err := s.donations.DonationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	if d == nil {
		return nil, apperr.NotFound("donation %s", id)
	}
	if !isParticipant(actor, d) && !(actor.Role == models.RoleNgo && d.Status == models.StatusAvailable) {
		return nil, apperr.Authorization("not a participant of this donation")
	}
	return d, nil
}

// isParticipant reports whether the actor is attached to the donation in
// their role, or is an admin.
func isParticipant(actor Actor, d *models.Donation) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDonor:
		return d.DonorID == actor.UserID
	case models.RoleNgo:
		return d.NgoID == actor.UserID
	case models.RoleVolunteer:
		return d.VolunteerID == actor.UserID
	}
	return false
}

// Claim moves an available donation to assigned with the calling NGO on
// record. The update is conditioned on the pre-claim status: of two racing
// claims exactly one succeeds, the other sees a conflict. The donor is
// notified, naming the claiming organization.
func (s *Service) Claim(ctx context.Context, actor Actor, donationID string) (*models.Donation, error) {
	if actor.Role != models.RoleNgo {
		return nil, apperr.Authorization("only NGOs can claim donations")
	}

	now := time.Now().UTC()
	d, err := s.donations.UpdateDonationIf(ctx, donationID,
		[]models.DonationStatus{models.StatusAvailable},
		func(d *models.Donation) {
			d.NgoID = actor.UserID
			d.Status = models.StatusAssigned
			d.AcceptedAt = &now
		})
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues(string(models.StatusAvailable), string(models.StatusAssigned)).Inc()

	org := s.displayName(ctx, actor.UserID)
	s.notify(ctx, d.DonorID, d.ID, fmt.Sprintf("Your donation %q was claimed by %s.", d.Title, org))
	return d, nil
}

// AssignVolunteer attaches a volunteer to a donation the calling NGO has
// claimed. The phase does not change. The volunteer is notified with the
// assigning organization and donation title.
func (s *Service) AssignVolunteer(ctx context.Context, actor Actor, donationID, volunteerID string) (*models.Donation, error) {
	if actor.Role != models.RoleNgo {
		return nil, apperr.Authorization("only NGOs can assign volunteers")
	}
	if donationID == "" || volunteerID == "" {
		return nil, apperr.Validation("foodId and volunteerId are required")
	}

	d, err := s.donations.DonationByID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	if d == nil {
		return nil, apperr.NotFound("donation %s", donationID)
	}
	if d.NgoID != actor.UserID {
		return nil, apperr.Authorization("donation is not claimed by this NGO")
	}

	volunteer, err := s.users.UserByID(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	if volunteer == nil {
		return nil, apperr.NotFound("volunteer %s", volunteerID)
	}
	if volunteer.Role != models.RoleVolunteer {
		return nil, apperr.Validation("user %s is not a volunteer", volunteerID)
	}

	updated, err := s.donations.UpdateDonationIf(ctx, donationID,
		[]models.DonationStatus{models.StatusAssigned, models.StatusInProgress},
		func(d *models.Donation) {
			d.VolunteerID = volunteerID
		})
	if err != nil {
		return nil, err
	}

	org := s.displayName(ctx, actor.UserID)
	s.notify(ctx, volunteerID, updated.ID,
		fmt.Sprintf("%s assigned you to deliver %q.", org, updated.Title))
	return updated, nil
}

// statusSources lists the statuses a target may be reached from. Targets
// absent here (available, assigned) are only reachable through Create,
// Claim, and AssignVolunteer.
var statusSources = map[models.DonationStatus][]models.DonationStatus{
	models.StatusInProgress: {models.StatusAssigned},
	models.StatusCompleted:  {models.StatusAssigned, models.StatusInProgress},
	models.StatusCancelled:  {models.StatusAvailable, models.StatusAssigned},
}

// UpdateStatus moves a donation to the target status under the transition
// table and role/ownership guards. Re-issuing the current status is a no-op
// success. Completion stamps the delivery time and notifies the donor.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, donationID string, target models.DonationStatus) (*models.Donation, error) {
	if !models.ValidStatus(target) {
		return nil, apperr.Validation("unknown status %q", target)
	}

	d, err := s.donations.DonationByID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	if d == nil {
		return nil, apperr.NotFound("donation %s", donationID)
	}

	// Idempotent for participants: already there, nothing else changes.
	// Non-participants are rejected so the no-op cannot be used as an
	// open read of arbitrary donations.
	if d.Status == target {
		if !isParticipant(actor, d) {
			return nil, apperr.Authorization("not a participant of this donation")
		}
		return d, nil
	}

	sources, ok := statusSources[target]
	if !ok {
		return nil, apperr.Conflict("status %s cannot be set directly", target)
	}

	if err := s.authorizeTransition(actor, d, target); err != nil {
		return nil, err
	}

	from := d.Status
	now := time.Now().UTC()
	updated, err := s.donations.UpdateDonationIf(ctx, donationID, sources,
		func(d *models.Donation) {
			d.Status = target
			if target == models.StatusCompleted {
				d.DeliveredAt = &now
			}
		})
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues(string(from), string(target)).Inc()

	if target == models.StatusCompleted {
		s.notifyCompletion(ctx, updated)
	}
	return updated, nil
}

// authorizeTransition enforces who may request each target status:
// volunteers move their own assigned donation forward, the claiming NGO may
// also advance or complete it, and only the owning donor cancels.
func (s *Service) authorizeTransition(actor Actor, d *models.Donation, target models.DonationStatus) error {
	switch target {
	case models.StatusInProgress, models.StatusCompleted:
		if actor.Role == models.RoleVolunteer && d.VolunteerID == actor.UserID {
			return nil
		}
		if actor.Role == models.RoleNgo && d.NgoID == actor.UserID {
			return nil
		}
		return apperr.Authorization("not a participant of this donation")
	case models.StatusCancelled:
		if actor.Role == models.RoleDonor && d.DonorID == actor.UserID {
			return nil
		}
		return apperr.Authorization("only the owning donor can cancel")
	default:
		return apperr.Authorization("status %s cannot be requested", target)
	}
}

// notifyCompletion tells the donor who delivered. A donation without a donor
// reference should not exist, but a prior bug must not crash the flow.
func (s *Service) notifyCompletion(ctx context.Context, d *models.Donation) {
	if d.DonorID == "" {
		log.Printf("donation %s completed without a donor reference; skipping notification", d.ID)
		return
	}

	volName := "no volunteer"
	if d.VolunteerID != "" {
		volName = s.personName(ctx, d.VolunteerID)
	}
	s.notify(ctx, d.DonorID, d.ID,
		fmt.Sprintf("Your donation %q was delivered (%s).", d.Title, volName))
}

// Delete permanently removes a donation. Admins delete unconditionally;
// donors delete only their own unclaimed listings.
func (s *Service) Delete(ctx context.Context, actor Actor, donationID string) error {
	switch actor.Role {
	case models.RoleAdmin:
		return s.donations.DeleteDonation(ctx, donationID)
	case models.RoleDonor:
		d, err := s.donations.DonationByID(ctx, donationID)
		if err != nil {
			return fmt.Errorf("get donation: %w", err)
		}
		if d == nil {
			return apperr.NotFound("donation %s", donationID)
		}
		if d.DonorID != actor.UserID {
			return apperr.Authorization("not the owner of this donation")
		}
		if d.Status != models.StatusAvailable {
			return apperr.Conflict("only unclaimed donations can be deleted")
		}
		return s.donations.DeleteDonation(ctx, donationID)
	default:
		return apperr.Authorization("role %s cannot delete donations", actor.Role)
	}
}

// List returns the role-scoped donation view: donors see their own, NGOs
// what they claimed (newest acceptance first), volunteers their deliveries,
// admins everything.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.Donation, error) {
	switch actor.Role {
	case models.RoleDonor:
		return s.donations.ListByDonor(ctx, actor.UserID)
	case models.RoleNgo:
		return s.donations.ListByNgo(ctx, actor.UserID)
	case models.RoleVolunteer:
		return s.donations.ListByVolunteer(ctx, actor.UserID)
	case models.RoleAdmin:
		return s.donations.ListAll(ctx)
	default:
		return nil, apperr.Authorization("role %s cannot list donations", actor.Role)
	}
}

// Available returns donations open for claiming, newest first. This is the
// NGO browse surface.
func (s *Service) Available(ctx context.Context) ([]models.Donation, error) {
	return s.donations.ListByStatus(ctx, models.StatusAvailable)
}

// notify appends a notification row. Failures are logged, never returned:
// the donation state change is authoritative and must not be blocked by a
// secondary side effect.
func (s *Service) notify(ctx context.Context, recipientID, donationID, message string) {
	if recipientID == "" {
		return
	}
	n := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		DonationID:  donationID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.Printf("notification to %s for donation %s failed: %v", recipientID, donationID, err)
	}
}

// displayName resolves a user ID to its organization name, falling back to
// the personal name, then the raw ID.
func (s *Service) displayName(ctx context.Context, userID string) string {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil || u == nil {
		return userID
	}
	if u.Organization != "" {
		return u.Organization
	}
	if u.Name != "" {
		return u.Name
	}
	return userID
}

// personName resolves a user ID to the personal name, falling back to the
// raw ID.
func (s *Service) personName(ctx context.Context, userID string) string {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil || u == nil {
		return userID
	}
	if u.Name != "" {
		return u.Name
	}
	return userID
}
