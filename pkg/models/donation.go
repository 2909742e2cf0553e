package models

import "time"

// DonationStatus is the lifecycle phase of a donation.
//
// Canonical machine: available → assigned → in_progress → completed,
// with cancelled reachable from available and assigned only. Claiming
// moves a donation to assigned; attaching a volunteer does not change
// the phase (it sets the participant reference).
type DonationStatus string

const (
	StatusAvailable  DonationStatus = "available"
	StatusAssigned   DonationStatus = "assigned"
	StatusInProgress DonationStatus = "in_progress"
	StatusCompleted  DonationStatus = "completed"
	StatusCancelled  DonationStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s DonationStatus) bool {
	switch s {
	case StatusAvailable, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s DonationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Donation is a listed quantity of surplus food with a lifecycle status.
//
// DonorID is set at creation and immutable. NgoID is empty exactly while
// the donation is available. VolunteerID stays empty until the claiming
// NGO assigns one.
type Donation struct {
	ID          string `json:"id" firestore:"id"`
	DonorID     string `json:"donor_id" firestore:"donor_id"`
	NgoID       string `json:"ngo_id,omitempty" firestore:"ngo_id"`
	VolunteerID string `json:"volunteer_id,omitempty" firestore:"volunteer_id"`

	Title          string    `json:"title" firestore:"title"`
	Description    string    `json:"description" firestore:"description"`
	Quantity       float64   `json:"quantity" firestore:"quantity"`
	Unit           string    `json:"unit" firestore:"unit"`
	ExpiryTime     time.Time `json:"expiry_time" firestore:"expiry_time"`
	PickupStart    time.Time `json:"pickup_window_start" firestore:"pickup_window_start"`
	PickupEnd      time.Time `json:"pickup_window_end" firestore:"pickup_window_end"`
	PickupLocation string    `json:"pickup_location" firestore:"pickup_location"`
	Temperature    string    `json:"temperature,omitempty" firestore:"temperature"`
	Dietary        string    `json:"dietary,omitempty" firestore:"dietary"`
	ImageURL       string    `json:"image_url,omitempty" firestore:"image_url"`

	Status      DonationStatus `json:"status" firestore:"status"`
	CreatedAt   time.Time      `json:"created_at" firestore:"created_at"`
	AcceptedAt  *time.Time     `json:"accepted_at,omitempty" firestore:"accepted_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty" firestore:"delivered_at"`
}

// Notification is an append-only message to a recipient about a donation.
// Only the recipient flips the read flag; rows are never deleted by the
// normal flow.
type Notification struct {
	ID          string    `json:"id" firestore:"id"`
	RecipientID string    `json:"recipient_id" firestore:"recipient_id"`
	DonationID  string    `json:"donation_id" firestore:"donation_id"`
	Message     string    `json:"message" firestore:"message"`
	Read        bool      `json:"read" firestore:"read"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
}
