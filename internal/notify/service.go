// Package notify exposes the notification sink to recipients: listing,
// marking read, and the generic authenticated send passthrough.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// Service reads and appends notification rows.
type Service struct {
	notifications store.NotificationStore
	users         store.UserStore
}

// New creates a notify service.
func New(notifications store.NotificationStore, users store.UserStore) *Service {
	return &Service{notifications: notifications, users: users}
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID string) ([]models.Notification, error) {
	return s.notifications.ListByRecipient(ctx, recipientID)
}

// MarkRead flips the read flag. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, actorID, notificationID string) error {
	n, err := s.notifications.NotificationByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n == nil {
		return apperr.NotFound("notification %s", notificationID)
	}
	if n.RecipientID != actorID {
		return apperr.Authorization("not the recipient of this notification")
	}
	return s.notifications.MarkRead(ctx, notificationID)
}

// Send appends a notification from any authenticated caller. This is a thin
// passthrough, not part of the lifecycle contract.
func (s *Service) Send(ctx context.Context, recipientID, donationID, message string) (*models.Notification, error) {
	if recipientID == "" || message == "" {
		return nil, apperr.Validation("recipient_id and message are required")
	}

	recipient, err := s.users.UserByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, apperr.NotFound("recipient %s", recipientID)
	}

	n := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		DonationID:  donationID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}
