package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type SubscriptionPaymentStatus string

const (
	SubscriptionPaymentPending SubscriptionPaymentStatus = "pending"
	SubscriptionPaymentPaid    SubscriptionPaymentStatus = "paid"
	SubscriptionPaymentFailed  SubscriptionPaymentStatus = "failed"
)

// Subscription is a dependent record owned by a user. The coordinator only
// ever flips its payment_status/status pair in response to a payment outcome.
type Subscription struct {
	ID            string // UUID
	UserID        string // UUID
	PlanID        string
	Status        SubscriptionStatus
	PaymentStatus SubscriptionPaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubscriptionOutcome is the dual-field update applied to a subscription when
// a payment referencing it reaches a terminal status.
type SubscriptionOutcome struct {
	PaymentStatus SubscriptionPaymentStatus
	// Status is nil when the subscription lifecycle status is left untouched
	// (a failed payment keeps the subscription pending for a retry).
	Status *SubscriptionStatus
}

// SubscriptionOutcomeFor maps a terminal payment status onto the subscription
// update. Invariant: payment_status=paid always activates, so a paid
// subscription can never remain pending.
func SubscriptionOutcomeFor(status PaymentStatus) SubscriptionOutcome {
	if status == PaymentStatusCompleted {
		active := SubscriptionStatusActive
		return SubscriptionOutcome{PaymentStatus: SubscriptionPaymentPaid, Status: &active}
	}
	return SubscriptionOutcome{PaymentStatus: SubscriptionPaymentFailed}
}
