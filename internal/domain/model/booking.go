package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// ServiceBooking is the marketplace booking a payment may settle.
type ServiceBooking struct {
	ID            string // UUID
	UserID        string // UUID
	ServiceID     string
	Status        BookingStatus
	PaymentStatus SubscriptionPaymentStatus // same pending|paid|failed vocabulary
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingOutcome mirrors SubscriptionOutcome for service bookings.
type BookingOutcome struct {
	PaymentStatus SubscriptionPaymentStatus
	Status        *BookingStatus
}

func BookingOutcomeFor(status PaymentStatus) BookingOutcome {
	if status == PaymentStatusCompleted {
		confirmed := BookingStatusConfirmed
		return BookingOutcome{PaymentStatus: SubscriptionPaymentPaid, Status: &confirmed}
	}
	return BookingOutcome{PaymentStatus: SubscriptionPaymentFailed}
}
